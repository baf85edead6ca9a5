/*
 * This file is part of the KubeVirt project
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * Copyright The KubeVirt Authors.
 *
 */

package vsfsck

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode"

	"golang.org/x/term"

	"kubevirt.io/vsfsck/pkg/log"
)

// Prompter asks the operator whether to repair. The answer is a single
// character: y or Y repairs, anything else, including end of input, declines.
// On a terminal the character is taken without waiting for a newline.
type Prompter struct {
	in     io.Reader
	out    io.Writer
	fd     int
	logger *log.FilteredLogger
}

func NewPrompter(in io.Reader, out io.Writer, logger *log.FilteredLogger) *Prompter {
	p := &Prompter{in: in, out: out, fd: -1, logger: logger}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *Prompter) Confirm(total int) (bool, error) {
	fmt.Fprintf(p.out, "\nFound %d inconsistencies. Repair them? (y/n): ", total)
	answer, err := p.readAnswer()
	if err != nil {
		return false, err
	}
	p.logger.V(3).Infof("repair answer %q", answer)
	return answer == 'y' || answer == 'Y', nil
}

func (p *Prompter) readAnswer() (rune, error) {
	if p.fd >= 0 {
		return p.readKey()
	}
	r := bufio.NewReader(p.in)
	for {
		c, _, err := r.ReadRune()
		if err == io.EOF {
			fmt.Fprintln(p.out)
			return 0, nil
		} else if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(c) {
			return c, nil
		}
	}
}

func (p *Prompter) readKey() (rune, error) {
	state, err := term.MakeRaw(p.fd)
	if err != nil {
		return 0, fmt.Errorf("failed to switch terminal to raw mode: %v", err)
	}
	buf := make([]byte, 1)
	_, err = p.in.Read(buf)
	if restoreErr := term.Restore(p.fd, state); restoreErr != nil {
		p.logger.Reason(restoreErr).Warning("failed to restore terminal state")
	}
	if err == io.EOF {
		fmt.Fprintln(p.out)
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	fmt.Fprintf(p.out, "%c\n", buf[0])
	return rune(buf[0]), nil
}
