// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// templateCmd prints a starter pipeline description to stdout
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print a starter pipeline description",
	Long: `Print an annotated starter pipeline.yaml to stdout. Redirect it to a
file and edit from there:

  sgpipe template > pipeline.yaml`,
	RunE: runTemplate,
}

func runTemplate(cmd *cobra.Command, args []string) error {
	fmt.Print(pipelineTemplate)
	return nil
}

// pipelineTemplate is the annotated starter description printed by
// `sgpipe template`. It must always load cleanly.
const pipelineTemplate = `## Name and version are used for the default image file name
format_version: 1

name: CowSay
version: "1.0"

## Purely informative
author: ""
source: ""

## Extra substitutions for command templates
## {image}, {exec}, {run} and {binds} are always available
## For a literal {foo} in commands, double the braces: {{foo}}
substitutions:
  text: "Moo"

## Bind specifications (source:destination) passed to Singularity
binds:
  - "/var/tmp:/var/tmp"

## Build instructions
build:
  ## Supported: build (runs sudo), bootstrap, pull, docker2singularity, custom
  type: pull

  ## Size in MB; optional for pull
  size: 512

  ## Extra options for the singularity build command; string
  # options: "--some-option"

  ## For build/bootstrap, a local Singularity definition file
  ## For pull, a shub:// or docker:// URL
  ## For docker2singularity, a local Dockerfile
  source: docker://chuanwen/cowsay

  ## Only for type "custom": the literal commands to run.
  ## Additional substitutions: {source}, {size} (as "--size XXX"), {options}
  # commands:
  # - "singularity ..."

  ## Credentials for docker registries, passed to singularity
  ## as environment variables
  # credentials:
  #   username: foo
  #   password: bar

## Run instructions
run:
  ## Shell commands executed in order; the first failure stops the batch
  commands:
    - "{exec} /usr/games/cowsay {text} > cowsay.txt 2> /dev/null"

## Test instructions
test:
  ## Files required for validation; prepare_commands run when any is
  ## missing or --force is given
  test_files:
    - cowsay.md5
  prepare_commands:
    - "echo '548c5e52a6c1abc728a6b8e27f5abdd4  cowsay.txt' > cowsay.md5"
  ## Run after the run phase to validate its output
  validate_commands:
    - "md5sum -c cowsay.md5"
`
