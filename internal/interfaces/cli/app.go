package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lite-lake/wildcert/internal/application/lifecycle"
	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/entity"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/certbot"
	"github.com/lite-lake/wildcert/internal/infrastructure/credentials"
	"github.com/lite-lake/wildcert/internal/infrastructure/dns"
	"github.com/lite-lake/wildcert/internal/infrastructure/lock"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
	"github.com/lite-lake/wildcert/internal/infrastructure/persistence"
	"github.com/lite-lake/wildcert/internal/infrastructure/ssh"
)

const (
	ExitOK       = 0
	ExitFailures = 1
	ExitFatal    = 2
)

// App wires the command line to the lifecycle components. The run lock and
// the credential file live in workDir.
type App struct {
	runner    certbot.Runner
	workDir   string
	now       func() time.Time
	out       io.Writer
	errOut    io.Writer
	logConfig *logger.Config

	opts     *Options
	cfg      *entity.Config
	exitCode int
}

func NewApp(logCfg *logger.Config) *App {
	return &App{
		runner:    certbot.NewExecRunner(),
		workDir:   ".",
		now:       time.Now,
		out:       os.Stdout,
		errOut:    os.Stderr,
		logConfig: logCfg,
		opts:      NewOptions(),
	}
}

// Run executes the selected actions and maps the outcome to an exit code.
// A fatal error stops the remaining actions.
func (a *App) Run(ctx context.Context) int {
	logger.ResetMetrics()
	if a.opts.NeedsConfig() {
		if err := a.loadConfig(ctx); err != nil {
			printError(a.errOut, "%v", err)
			return ExitFatal
		}
	}

	steps := []struct {
		enabled bool
		run     func(context.Context) (*valueobject.Report, error)
	}{
		{a.opts.Install, a.install},
		{a.opts.Generate, a.generate},
		{a.opts.Copy, a.distribute},
		{a.opts.Renew, a.renew},
		{a.opts.Init, a.writeTemplate},
		{a.opts.Status, a.status},
	}

	code := ExitOK
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			printError(a.errOut, "interrupted: %v", err)
			return ExitFatal
		}
		report, err := step.run(ctx)
		if report != nil && len(report.Results) > 0 {
			printReport(a.out, report)
		}
		if err != nil {
			printError(a.errOut, "%v", err)
			if isFatal(err) {
				return ExitFatal
			}
			code = ExitFailures
			continue
		}
		if report != nil && report.HasFailures() {
			code = ExitFailures
		}
	}

	logger.LogMetrics(ctx)
	return code
}

func isFatal(err error) bool {
	return errors.Is(err, domain.ErrAlreadyRunning) ||
		errors.Is(err, domain.ErrCredentialFile) ||
		errors.Is(err, domain.ErrLockFailed) ||
		errors.Is(err, context.Canceled)
}

func (a *App) loadConfig(ctx context.Context) error {
	cfg, err := persistence.NewConfigLoader().Load(ctx, a.opts.ConfigFile)
	if err != nil {
		return err
	}
	if a.opts.Staging {
		cfg.Certbot.Server = constants.LetsEncryptStageURL
	}
	a.cfg = cfg
	return nil
}

func (a *App) orchestrator() *lifecycle.Orchestrator {
	client := certbot.NewClient(a.runner, a.cfg.Certbot)
	ocfg := &lifecycle.OrchestratorConfig{
		Certbot:     client,
		Inspector:   lifecycle.NewExpiryInspector(client, a.now),
		Backups:     lifecycle.NewBackupManager(a.cfg.DestPath, a.cfg.Certbot.LiveDir, a.now),
		Credentials: credentials.NewManager(a.workDir),
		Lock:        lock.New(a.workDir),
	}
	if a.cfg.Cloudflare.VerifyZones {
		ocfg.Zones = dns.NewZoneVerifier(dns.NewCloudflareZones(a.cfg.Cloudflare.APIToken.Value()))
	}
	return lifecycle.NewOrchestrator(ocfg)
}

func (a *App) install(ctx context.Context) (*valueobject.Report, error) {
	return lifecycle.NewInstaller(a.runner).Install(ctx)
}

func (a *App) generate(ctx context.Context) (*valueobject.Report, error) {
	return a.orchestrator().Generate(ctx, a.cfg)
}

func (a *App) renew(ctx context.Context) (*valueobject.Report, error) {
	return a.orchestrator().Renew(ctx, a.cfg)
}

func (a *App) distribute(ctx context.Context) (*valueobject.Report, error) {
	var uploader lifecycle.Uploader
	if a.cfg.Upload != nil {
		uploader = ssh.NewUploader(*a.cfg.Upload)
	}
	d := lifecycle.NewDistributor(a.cfg.Certbot.LiveDir, uploader)
	return d.Distribute(ctx, a.cfg.Domains, a.cfg.OutputDir)
}

func (a *App) writeTemplate(ctx context.Context) (*valueobject.Report, error) {
	path := a.opts.ConfigFile
	if err := persistence.WriteTemplate(path); err != nil {
		return nil, err
	}
	fmt.Fprintln(a.out, SuccessStyle.Render(fmt.Sprintf("✓ configuration template written to %s", path)))
	fmt.Fprintln(a.out, HelpStyle.Render("  edit it, then run with --generate"))
	return nil, nil
}

func (a *App) status(ctx context.Context) (*valueobject.Report, error) {
	return lifecycle.NewStatusReporter(a.cfg.Certbot.LiveDir, a.now).Report(ctx, a.cfg.Domains)
}
