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

package testutils

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/format"

	"kubevirt.io/vsfsck/pkg/log"
)

// VSFSckTestSuiteSetup is the default setup function for the unit test
// suites. The TEST_TARGET environment variable can be used to override the
// suite description.
func VSFSckTestSuiteSetup(t *testing.T) {
	_, description, _, _ := runtime.Caller(1)
	projectRoot := findRoot()
	description = strings.TrimPrefix(description, projectRoot)
	// Redirect writes to ginkgo writer to keep tests quiet when
	// they succeed
	log.Log.SetIOWriter(GinkgoWriter)
	// setup the connection between ginkgo and gomega
	gomega.RegisterFailHandler(Fail)

	format.TruncatedDiff = false
	format.MaxLength = 8192

	if testTarget := os.Getenv("TEST_TARGET"); testTarget != "" {
		description = testTarget
	}
	RunSpecs(t, description)
}

func findRoot() string {
	_, current, _, _ := runtime.Caller(0)
	for {
		current = filepath.Dir(current)
		if current == "/" || current == "." {
			return current
		}
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return strings.TrimSuffix(current, "/") + "/"
		} else if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			panic(err)
		}
	}
}
