// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package validator

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/distribution/reference"

	"github.com/researchplatform/rpctl/pkg/compose"
	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/errors"
	"github.com/researchplatform/rpctl/pkg/header"
	"github.com/researchplatform/rpctl/pkg/version"
	"github.com/researchplatform/rpctl/pkg/workspace"
)

// Minimum tool versions.
var (
	MinDockerVersion  = MustParseConstraint(">= 20.10")
	MinComposeVersion = MustParseConstraint(">= 2.0")
)

// Validator runs the readiness checks for one project.
type Validator struct {
	cfg     *config.Config
	runner  compose.Runner
	version string
	lookup  LookupFunc
}

// Option configures a Validator.
type Option func(*Validator)

// WithVersion sets the tool version stamped on results.
func WithVersion(v string) Option {
	return func(x *Validator) {
		x.version = v
	}
}

// WithLookup replaces the process environment used for compose interpolation.
func WithLookup(l LookupFunc) Option {
	return func(x *Validator) {
		x.lookup = l
	}
}

// New returns a Validator for cfg using runner to query the container tooling.
func New(cfg *config.Config, runner compose.Runner, opts ...Option) *Validator {
	v := &Validator{
		cfg:    cfg,
		runner: runner,
		lookup: os.LookupEnv,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate runs every check. Only context cancellation is returned as an
// error; check failures are recorded in the result.
func (v *Validator) Validate(ctx context.Context) (*Result, error) {
	start := time.Now()

	result := NewResult()
	result.Init(header.KindValidationResult, v.version)
	result.ProjectDir = v.cfg.ProjectDir

	steps := []func(context.Context) []Check{
		v.checkDocker,
		v.checkCompose,
		v.checkComposeFile,
		v.checkEnv,
		v.checkDirs,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.add(step(ctx)...)
	}

	result.Summary.Duration = time.Since(start)
	result.summarize()

	slog.Debug("validation completed",
		"passed", result.Summary.Passed,
		"failed", result.Summary.Failed,
		"skipped", result.Summary.Skipped,
		"status", result.Summary.Status,
		"duration", result.Summary.Duration)
	return result, nil
}

// evaluate builds a check from a version constraint and the detected value.
func evaluate(name string, c *Constraint, actual string) Check {
	chk := Check{Name: name, Expected: c.String(), Actual: actual}
	ok, err := c.Evaluate(actual)
	switch {
	case err != nil:
		chk.Status = CheckSkipped
		chk.Message = err.Error()
	case ok:
		chk.Status = CheckPassed
	default:
		chk.Status = CheckFailed
		chk.Message = fmt.Sprintf("expected %s, got %s", c, actual)
	}
	return chk
}

func (v *Validator) checkDocker(ctx context.Context) []Check {
	installed := Check{Name: "docker.installed", Expected: "docker on PATH"}
	path, err := v.runner.LookPath("docker")
	if err != nil {
		installed.Status = CheckFailed
		installed.Message = "docker is not installed"
		return []Check{installed, {Name: "docker.version", Expected: MinDockerVersion.String(),
			Status: CheckSkipped, Message: "docker is not installed"}}
	}
	installed.Status = CheckPassed
	installed.Actual = path

	ver, err := compose.EngineVersion(ctx, v.runner)
	if err != nil {
		return []Check{installed, {Name: "docker.version", Expected: MinDockerVersion.String(),
			Status: CheckFailed, Message: "docker daemon is not reachable: " + errorMessage(err)}}
	}
	return []Check{installed, evaluate("docker.version", MinDockerVersion, ver)}
}

func (v *Validator) checkCompose(ctx context.Context) []Check {
	if _, err := v.runner.LookPath("docker"); err == nil {
		out, err := v.runner.Output(ctx, compose.Command{Name: "docker", Args: []string{"compose", "version", "--short"}})
		if err == nil {
			chk := evaluate("compose.version", MinComposeVersion, strings.TrimSpace(string(out)))
			chk.Actual = "docker compose " + chk.Actual
			return []Check{chk}
		}
	}

	if _, err := v.runner.LookPath("docker-compose"); err == nil {
		out, err := v.runner.Output(ctx, compose.Command{Name: "docker-compose", Args: []string{"version", "--short"}})
		if err != nil {
			return []Check{{Name: "compose.version", Expected: MinComposeVersion.String(),
				Status: CheckFailed, Message: "docker-compose failed: " + errorMessage(err)}}
		}
		raw := strings.TrimSpace(string(out))
		chk := evaluate("compose.version", MinComposeVersion, raw)
		chk.Actual = "docker-compose " + raw
		if ver, err := version.ParseVersion(raw); err == nil && ver.Major == 1 {
			chk.Status = CheckSkipped
			chk.Message = "docker-compose v1 is deprecated, install the compose plugin"
			slog.Warn(chk.Message, "version", raw)
		}
		return []Check{chk}
	}

	return []Check{{Name: "compose.version", Expected: MinComposeVersion.String(),
		Status: CheckFailed, Message: "neither 'docker compose' nor 'docker-compose' is installed"}}
}

// interpolationLookup resolves variables the way rpctl runs compose: the
// values rpctl exports win, then the process environment, then .env.
func (v *Validator) interpolationLookup() LookupFunc {
	exported := map[string]string{
		"HOST_PORT": strconv.Itoa(v.cfg.HostPort),
		"NAS_IP":    v.cfg.NASIP,
	}
	dotenv, err := config.ReadDotEnv(v.cfg.EnvPath())
	if err != nil {
		dotenv = map[string]string{}
	}
	return func(name string) (string, bool) {
		if val, ok := exported[name]; ok {
			return val, true
		}
		if val, ok := v.lookup(name); ok {
			return val, true
		}
		val, ok := dotenv[name]
		return val, ok
	}
}

func (v *Validator) checkComposeFile(_ context.Context) []Check {
	path := v.cfg.ComposePath()
	fileCheck := Check{Name: "compose.file", Expected: "valid compose file", Actual: path}

	cf, err := LoadComposeFile(path, v.interpolationLookup())
	if err != nil {
		fileCheck.Status = CheckFailed
		fileCheck.Message = errorMessage(err)
		skipped := "compose file unavailable"
		return []Check{
			fileCheck,
			{Name: "compose.services", Status: CheckSkipped, Message: skipped},
			{Name: "compose.images", Status: CheckSkipped, Message: skipped},
			{Name: "compose.port", Status: CheckSkipped, Message: skipped},
		}
	}
	fileCheck.Status = CheckPassed

	return []Check{
		fileCheck,
		v.checkServices(cf),
		checkImages(cf),
		v.checkPort(cf),
	}
}

func (v *Validator) checkServices(cf *ComposeFile) Check {
	want := []string{v.cfg.AppService, v.cfg.RedisService}
	chk := Check{
		Name:     "compose.services",
		Expected: strings.Join(want, ","),
		Actual:   strings.Join(cf.ServiceNames(), ","),
		Status:   CheckPassed,
	}
	var missing []string
	for _, s := range want {
		if _, ok := cf.Services[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		chk.Status = CheckFailed
		chk.Message = "missing services: " + strings.Join(missing, ", ")
	}
	return chk
}

func checkImages(cf *ComposeFile) Check {
	chk := Check{Name: "compose.images", Expected: "valid image references", Status: CheckPassed}
	var images, problems []string
	for _, name := range cf.ServiceNames() {
		svc := cf.Services[name]
		switch {
		case svc.Image != "":
			ref, err := reference.ParseNormalizedNamed(svc.Image)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			images = append(images, reference.FamiliarString(reference.TagNameOnly(ref)))
		case svc.Build != nil:
			images = append(images, name+"(build)")
		default:
			problems = append(problems, name+": neither image nor build is set")
		}
	}
	chk.Actual = strings.Join(images, ",")
	if len(problems) > 0 {
		chk.Status = CheckFailed
		chk.Message = strings.Join(problems, "; ")
	}
	return chk
}

func (v *Validator) checkPort(cf *ComposeFile) Check {
	chk := Check{
		Name:     "compose.port",
		Expected: fmt.Sprintf("%d:%d", v.cfg.HostPort, config.ContainerPort),
	}
	svc, ok := cf.Services[v.cfg.AppService]
	if !ok {
		chk.Status = CheckSkipped
		chk.Message = "app service is not defined"
		return chk
	}

	var mapped []string
	for _, p := range svc.Ports {
		mapped = append(mapped, p.String())
		if !p.Publishes(v.cfg.HostPort) {
			continue
		}
		chk.Actual = p.String()
		if p.Target != strconv.Itoa(config.ContainerPort) {
			chk.Status = CheckFailed
			chk.Message = fmt.Sprintf("host port %d is mapped to container port %s, the app listens on %d",
				v.cfg.HostPort, p.Target, config.ContainerPort)
			return chk
		}
		chk.Status = CheckPassed
		return chk
	}

	chk.Actual = strings.Join(mapped, ",")
	chk.Status = CheckFailed
	chk.Message = fmt.Sprintf("%s does not publish port %d", v.cfg.AppService, v.cfg.HostPort)
	return chk
}

func (v *Validator) checkEnv(_ context.Context) []Check {
	path := v.cfg.EnvPath()
	fileCheck := Check{Name: "env.file", Expected: "present", Actual: path}

	vars, err := config.ReadDotEnv(path)
	if err != nil {
		fileCheck.Status = CheckFailed
		fileCheck.Message = errorMessage(err)
		if errors.Is(err, errors.ErrCodeNotFound) {
			fileCheck.Message = "run 'rpctl setup' to create it"
		}
		return []Check{fileCheck}
	}
	fileCheck.Status = CheckPassed

	checks := []Check{fileCheck}
	for _, key := range config.RequiredAPIKeys {
		chk := Check{Name: "env." + key, Expected: "configured", Status: CheckPassed}
		val, ok := vars[key]
		switch {
		case !ok:
			chk.Status = CheckFailed
			chk.Actual = "missing"
		case config.IsPlaceholder(val):
			chk.Status = CheckFailed
			chk.Actual = config.Mask(val)
			chk.Message = "placeholder value"
		default:
			chk.Actual = config.Mask(val)
			if !config.IsSecretKey(key) {
				chk.Actual = val
			}
		}
		checks = append(checks, chk)
	}
	return checks
}

func (v *Validator) checkDirs(_ context.Context) []Check {
	ws := workspace.New(v.cfg.ProjectDir, workspace.WithLogDir(v.cfg.LogDir))
	chk := Check{Name: "workspace.dirs", Expected: "all present", Status: CheckPassed, Actual: "all present"}
	if missing := ws.Missing(); len(missing) > 0 {
		chk.Status = CheckFailed
		chk.Actual = strings.Join(missing, ",")
		chk.Message = "run 'rpctl setup' to create them"
	}
	return []Check{chk}
}

func errorMessage(err error) string {
	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
