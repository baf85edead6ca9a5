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

package templates

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

// ActsAsRootCommand installs the usage and help templates on cmd. They are
// inherited by every subcommand. {{ProgramName}} in examples is replaced with
// programName.
func ActsAsRootCommand(cmd *cobra.Command, programName string) {
	if cmd == nil {
		panic("nil root command")
	}
	t := &templater{
		RootCmd:       cmd,
		UsageTemplate: MainUsageTemplate,
		HelpTemplate:  MainHelpTemplate,
		ProgramName:   programName,
	}
	cmd.SilenceUsage = true
	cmd.SetUsageFunc(t.UsageFunc())
	cmd.SetHelpFunc(t.HelpFunc())
}

type templater struct {
	UsageTemplate string
	HelpTemplate  string
	RootCmd       *cobra.Command
	ProgramName   string
}

func (templater *templater) HelpFunc() func(*cobra.Command, []string) {
	return func(c *cobra.Command, s []string) {
		t := template.New("help")
		t.Funcs(templater.templateFuncs())
		template.Must(t.Parse(templater.HelpTemplate))
		err := t.Execute(c.OutOrStdout(), c)
		if err != nil {
			c.Println(err)
		}
	}
}

func (templater *templater) UsageFunc() func(*cobra.Command) error {
	return func(c *cobra.Command) error {
		t := template.New("usage")
		t.Funcs(templater.templateFuncs())
		template.Must(t.Parse(templater.UsageTemplate))
		return t.Execute(c.OutOrStderr(), c)
	}
}

func (templater *templater) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"trim":                strings.TrimSpace,
		"trimRight":           func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) },
		"flagsNotIntersected": flagsNotIntersected,
		"visibleFlags":        visibleFlags,
		"flagsUsages":         flagsUsages,
		"cmdGroupsString":     templater.cmdGroupsString,
		"usageLine":           templater.usageLine,
		"reverseParentsNames": templater.reverseParentsNames,
		"prepare":             templater.prepare,
	}
}

func (templater *templater) cmdGroupsString(c *cobra.Command) string {
	cmds := []string{"Available Commands:"}
	for _, cmd := range c.Commands() {
		if cmd.IsAvailableCommand() {
			cmds = append(cmds, "  "+rpad(cmd.Name(), cmd.NamePadding())+"   "+cmd.Short)
		}
	}
	return strings.Join(cmds, "\n")
}

func (templater *templater) reverseParentsNames(c *cobra.Command) []string {
	reverseParentsNames := []string{}
	parents := templater.parents(c)
	for i := len(parents) - 1; i >= 0; i-- {
		reverseParentsNames = append(reverseParentsNames, parents[i].Name())
	}
	return reverseParentsNames
}

func (templater *templater) parents(c *cobra.Command) []*cobra.Command {
	parents := []*cobra.Command{c}
	for current := c; current != templater.RootCmd && current.HasParent(); {
		current = current.Parent()
		parents = append(parents, current)
	}
	return parents
}

func (templater *templater) usageLine(c *cobra.Command) string {
	const suffix = "[flags]"
	usage := c.UseLine()
	if c.HasAvailableFlags() && !strings.Contains(usage, suffix) {
		usage += " " + suffix
	}
	return templater.replaceRootWithProgramName(usage)
}

func (templater *templater) prepare(s string) string {
	return strings.ReplaceAll(s, "{{ProgramName}}", templater.ProgramName)
}

func (templater *templater) replaceRootWithProgramName(s string) string {
	root := templater.RootCmd.Name()
	if strings.HasPrefix(s, root) {
		return strings.Replace(s, root, templater.ProgramName, 1)
	}
	return s
}

func flagsUsages(f *flag.FlagSet) string {
	if f == nil {
		return ""
	}
	return strings.TrimRight(f.FlagUsages(), "\n")
}

func rpad(s string, padding int) string {
	t := fmt.Sprintf("%%-%ds", padding)
	return fmt.Sprintf(t, s)
}

func flagsNotIntersected(l *flag.FlagSet, r *flag.FlagSet) *flag.FlagSet {
	f := flag.NewFlagSet("notIntersected", flag.ContinueOnError)
	l.VisitAll(func(flag *flag.Flag) {
		if r.Lookup(flag.Name) == nil {
			f.AddFlag(flag)
		}
	})
	return f
}

func visibleFlags(l *flag.FlagSet) *flag.FlagSet {
	hidden := "help"
	f := flag.NewFlagSet("visible", flag.ContinueOnError)
	l.VisitAll(func(flag *flag.Flag) {
		if flag.Name != hidden && !flag.Hidden {
			f.AddFlag(flag)
		}
	})
	return f
}
