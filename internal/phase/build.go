// SPDX-License-Identifier: MPL-2.0

package phase

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"sgpipe/internal/batch"
	"sgpipe/internal/pipeline"
)

// Environment variable names Singularity reads for registry credentials.
const (
	envDockerUsername = "SINGULARITY_DOCKER_USERNAME"
	envDockerPassword = "SINGULARITY_DOCKER_PASSWORD"
)

// Build produces the target image. An existing image is skipped unless
// force is set, in which case it is deleted first; both the existence
// check and the deletion are suppressed in dry-run mode.
func (c *Controller) Build(ctx context.Context, force bool) error {
	c.logger.Info("building pipeline", "image", c.imageFile)

	if !c.dryRun {
		if _, err := os.Stat(c.imageFile); err == nil {
			if !force {
				c.logger.Info("image file already exists, skipping build", "image", c.imageFile)
				return nil
			}
			c.logger.Info("deleting existing image file", "image", c.imageFile)
			if err := os.Remove(c.imageFile); err != nil {
				return fmt.Errorf("failed to delete existing image: %w", err)
			}
		}
	}

	commands, err := buildCommands(c.tool, &c.desc.Build)
	if err != nil {
		return err
	}

	res, err := c.runner.Run(ctx, batch.Batch{
		Commands: commands,
		Extra:    c.buildExtras(),
		Env:      credentialEnv(c.desc.Build.Credentials),
	})
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return &StepError{Phase: "build", Step: res.Step, Code: res.Code}
	}

	c.logger.Info("successfully built image", "image", c.imageFile)
	return nil
}

// buildCommands selects the command template list for the build variant.
// The configured tool executable is spliced into the templates so a
// binary override applies to the build phase as well as to exec and run.
func buildCommands(tool string, spec *pipeline.BuildSpec) ([]string, error) {
	switch spec.Type {
	case pipeline.BuildPull:
		return []string{
			tool + " pull {size} {options} --name {image} {source}",
		}, nil
	case pipeline.BuildBootstrap:
		return []string{
			tool + " create -F {size} {image}",
			"sudo " + tool + " bootstrap {options} {image} {source}",
		}, nil
	case pipeline.BuildImage:
		return []string{
			"sudo " + tool + " build {options} {image} {source}",
		}, nil
	case pipeline.BuildDocker2Singularity:
		return []string{
			"sudo docker build -t {docker_name} -f {source} .",
			"sudo docker run -v /var/run/docker.sock:/var/run/docker.sock -v $(pwd):/output " +
				"--privileged -t --rm singularityware/docker2singularity {docker_name}",
			"mv {docker_name}-*.img {image}",
		}, nil
	case pipeline.BuildCustom:
		return spec.Commands, nil
	default:
		return nil, &UnknownBuildTypeError{Type: spec.Type}
	}
}

// buildExtras are the lowest-precedence substitutions available only to
// build commands.
func (c *Controller) buildExtras() map[string]string {
	size := ""
	if c.desc.Build.Size > 0 {
		size = "--size " + strconv.Itoa(c.desc.Build.Size)
	}
	return map[string]string{
		"source":      c.desc.Build.Source,
		"options":     c.desc.Build.Options,
		"size":        size,
		"docker_name": c.desc.DockerName(),
	}
}

// credentialEnv renders registry credentials as a subprocess environment
// overlay. The overlay is scoped to the build batch; the ambient process
// environment is never mutated.
func credentialEnv(creds *pipeline.Credentials) map[string]string {
	if creds == nil {
		return nil
	}
	env := make(map[string]string, 2)
	if creds.Username != "" {
		env[envDockerUsername] = creds.Username
	}
	if creds.Password != "" {
		env[envDockerPassword] = creds.Password
	}
	return env
}
