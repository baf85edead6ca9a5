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

const (
	// SectionVars is the help template section that declares variables to be used in the template.
	SectionVars = `{{$visibleFlags := visibleFlags (flagsNotIntersected .LocalFlags .PersistentFlags)}}` +
		`{{$usageLine := usageLine .}}` +
		`{{$reverseParentsNames := reverseParentsNames .}}`

	// SectionUsage is the help template section that displays the command's usage.
	SectionUsage = `{{if and .Runnable (ne .UseLine "")}}Usage:
  {{trimRight $usageLine}}

{{end}}`

	// SectionExamples is the help template section that displays command examples.
	SectionExamples = `{{if .HasExample}}Examples:
{{prepare (trimRight .Example)}}

{{end}}`

	SectionFlags = `{{ if $visibleFlags.HasFlags }}Flags:
{{ trimRight (flagsUsages $visibleFlags) }}

{{ end }}`

	SectionGlobalFlags = `{{ if .HasAvailableInheritedFlags }}Global Flags:
{{ trimRight (flagsUsages .InheritedFlags) }}

{{ end }}`

	// SectionSubcommands is the help template section that displays the command's subcommands.
	SectionSubcommands = `{{if .HasAvailableSubCommands}}{{cmdGroupsString .}}

{{end}}`

	// SectionTipsHelp is the help template section that displays the '--help' hint.
	SectionTipsHelp = `{{if .HasSubCommands}}Use "{{range $reverseParentsNames}}{{.}} {{end}}<command> --help" for more information about a given command.
{{end}}`

	// MainUsageTemplate is the usage template for every command.
	MainUsageTemplate = "\n\n" +
		SectionVars +
		SectionExamples +
		SectionSubcommands +
		SectionFlags +
		SectionGlobalFlags +
		SectionUsage +
		SectionTipsHelp

	// MainHelpTemplate is the help template for every command.
	MainHelpTemplate = `{{with or .Long .Short }}{{. | trim}}{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`
)
