// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	SingularityNotFoundId Id = iota + 1
	SingularityUnsupportedId
	PipelineNotFoundId
	PipelineInvalidId
)

type MarkdownMsg string

type Issue struct {
	id    Id          // ID used to look up the issue
	mdMsg MarkdownMsg // Markdown text that will be rendered
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	singularityNotFoundIssue = &Issue{
		id: SingularityNotFoundId,
		mdMsg: `
# Singularity not found!

The ` + "`singularity`" + ` executable could not be located in your PATH.

## Things you can try:
- Install Singularity following your distribution's instructions
- If it is installed under a different name or outside PATH, point the
  runner at it:
~~~
$ sgpipe --singularity /opt/singularity/bin/singularity run
~~~
- Verify the installation:
~~~
$ singularity --version
~~~`,
	}

	singularityUnsupportedIssue = &Issue{
		id: SingularityUnsupportedId,
		mdMsg: `
# Unsupported Singularity version!

The installed Singularity answered the version query with a version below
the minimum this runner supports, or with output that could not be parsed.

## Things you can try:
- Check what is installed:
~~~
$ singularity --version
~~~
- Upgrade Singularity to a supported release
- Check your Singularity installation!`,
	}

	pipelineNotFoundIssue = &Issue{
		id: PipelineNotFoundId,
		mdMsg: `
# No pipeline description found!

The pipeline description file could not be opened.

## Things you can try:
- Create a starter description in the current directory:
~~~
$ sgpipe template > pipeline.yaml
~~~
- Or point the runner at an existing description:
~~~
$ sgpipe -p path/to/pipeline.yaml build
~~~`,
	}

	pipelineInvalidIssue = &Issue{
		id: PipelineInvalidId,
		mdMsg: `
# Invalid pipeline description!

The description file was found but could not be loaded.

## Common issues:
- Invalid YAML syntax (indentation, missing quotes)
- A missing required attribute (name, version, build, run, test)
- An unsupported format_version
- A bind entry that is not of the form ` + "`source:dest`" + `
- A build section whose fields do not match its type

## Things you can try:
- Check the error message above for the offending field
- Compare against a fresh template:
~~~
$ sgpipe template
~~~`,
	}

	issues = map[Id]*Issue{
		singularityNotFoundIssue.Id():    singularityNotFoundIssue,
		singularityUnsupportedIssue.Id(): singularityUnsupportedIssue,
		pipelineNotFoundIssue.Id():       pipelineNotFoundIssue,
		pipelineInvalidIssue.Id():        pipelineInvalidIssue,
	}
)

func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
