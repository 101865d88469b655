package lifecycle

import (
	"context"
	"strings"

	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/certbot"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// CommandRunner is satisfied by certbot.Runner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, string, error)
}

// Installer puts certbot and its Cloudflare DNS plugin on the host. Every
// command is attempted and reported; the first failure does not stop the rest.
type Installer struct {
	runner   CommandRunner
	commands [][]string
}

func NewInstaller(runner CommandRunner) *Installer {
	return &Installer{runner: runner, commands: certbot.InstallCommands()}
}

func (i *Installer) Install(ctx context.Context) (*valueobject.Report, error) {
	ctx = logger.WithOperation(ctx, "install")
	log := logger.FromContext(ctx)
	report := valueobject.NewReport("install")

	for _, cmd := range i.commands {
		line := strings.Join(cmd, " ")
		result := &valueobject.DomainResult{Domain: cmd[len(cmd)-1], Action: valueobject.ActionInstall}

		log.Info("running", "command", line)
		_, _, err := i.runner.Run(ctx, cmd[0], cmd[1:]...)
		if err != nil {
			result.Message = line
			result.Err = err
		} else {
			result.Message = "installed"
		}
		report.Add(result)
	}
	return report, nil
}
