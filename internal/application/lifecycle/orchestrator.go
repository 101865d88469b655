package lifecycle

import (
	"context"
	"fmt"

	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/entity"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

type Mode int

const (
	ModeGenerate Mode = iota
	ModeRenew
)

func (m Mode) String() string {
	if m == ModeRenew {
		return "renew"
	}
	return "generate"
}

// StatusInspector is satisfied by *ExpiryInspector.
type StatusInspector interface {
	Inspect(ctx context.Context, name string) CertificateStatus
}

type OrchestratorConfig struct {
	Certbot     CertbotClient
	Inspector   StatusInspector
	Backups     Backupper
	Credentials CredentialScope
	// Lock and Zones are optional.
	Lock  RunLocker
	Zones ZoneChecker
}

type Orchestrator struct {
	certbot     CertbotClient
	inspector   StatusInspector
	backups     Backupper
	credentials CredentialScope
	lock        RunLocker
	zones       ZoneChecker
}

func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	inspector := cfg.Inspector
	if inspector == nil {
		inspector = NewExpiryInspector(cfg.Certbot, nil)
	}
	return &Orchestrator{
		certbot:     cfg.Certbot,
		inspector:   inspector,
		backups:     cfg.Backups,
		credentials: cfg.Credentials,
		lock:        cfg.Lock,
		zones:       cfg.Zones,
	}
}

// Decide maps a certificate's state to what a command does with it. A
// status carrying a query error is never acted on.
func Decide(mode Mode, status CertificateStatus) valueobject.Action {
	if status.QueryErr != nil {
		return valueobject.ActionSkip
	}
	if status.NeedsRenewal() {
		return valueobject.ActionRenew
	}
	if mode == ModeGenerate && !status.Found {
		return valueobject.ActionIssue
	}
	return valueobject.ActionSkip
}

// Generate issues certificates that do not exist yet and force-renews those
// close to expiry.
func (o *Orchestrator) Generate(ctx context.Context, cfg *entity.Config) (*valueobject.Report, error) {
	return o.run(ctx, ModeGenerate, cfg)
}

// Renew only touches existing certificates close to expiry.
func (o *Orchestrator) Renew(ctx context.Context, cfg *entity.Config) (*valueobject.Report, error) {
	return o.run(ctx, ModeRenew, cfg)
}

// run returns an error only for conditions that stop the whole command; per
// domain failures are carried in the report.
func (o *Orchestrator) run(ctx context.Context, mode Mode, cfg *entity.Config) (*valueobject.Report, error) {
	ctx = logger.WithOperation(ctx, mode.String())
	log := logger.FromContext(ctx)
	report := valueobject.NewReport(mode.String())

	// an interrupted run must not write the token file
	if err := ctx.Err(); err != nil {
		return report, domain.WrapOp(mode.String(), err)
	}

	if o.lock != nil {
		if err := o.lock.Acquire(); err != nil {
			return report, domain.WrapOp(mode.String(), err)
		}
		defer func() {
			if err := o.lock.Release(); err != nil {
				log.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	err := o.credentials.With(cfg.Cloudflare.APIToken.Value(), func(credPath string) error {
		for _, name := range cfg.Domains {
			if err := ctx.Err(); err != nil {
				report.Add(&valueobject.DomainResult{
					Domain:  name,
					Action:  valueobject.ActionSkip,
					Message: "not processed, run interrupted",
					Err:     err,
				})
				continue
			}
			report.Add(o.processDomain(ctx, mode, cfg, name, credPath))
		}
		return nil
	})
	if err != nil {
		return report, domain.WrapOp(mode.String(), err)
	}
	if err := ctx.Err(); err != nil {
		log.Warn("run interrupted", "domains", len(report.Results), "failed", report.Failed())
		return report, domain.WrapOp(mode.String(), err)
	}

	log.Info("run finished", "domains", len(report.Results), "failed", report.Failed())
	return report, nil
}

func (o *Orchestrator) processDomain(ctx context.Context, mode Mode, cfg *entity.Config, name, credPath string) *valueobject.DomainResult {
	ctx = logger.WithDomain(ctx, name)
	log := logger.FromContext(ctx)
	result := &valueobject.DomainResult{Domain: name, Action: valueobject.ActionSkip}

	if o.zones != nil {
		zone, err := o.zones.Verify(ctx, name)
		if err != nil {
			log.Error("zone preflight failed", "error", err)
			result.Action = valueobject.ActionPreflightFailed
			result.Message = "zone not reachable with the configured token"
			result.Err = domain.WrapEntity("domain", name, err)
			return result
		}
		log.Debug("zone verified", "zone", zone)
	}

	status := o.inspector.Inspect(ctx, name)
	if status.QueryErr != nil {
		log.Error("could not query certificate", "error", status.QueryErr)
		result.Message = "certificate query failed"
		result.Err = domain.WrapEntity("domain", name, status.QueryErr)
		return result
	}

	action := Decide(mode, status)
	result.Action = action
	if action == valueobject.ActionSkip {
		result.Message = skipMessage(mode, status)
		log.Info(result.Message)
		return result
	}

	if !o.backups.Backup(ctx, name) {
		log.Warn("backup failed, leaving certificate untouched")
		result.Action = valueobject.ActionBackupFailed
		result.Message = "backup failed, skipped"
		result.Err = domain.WrapEntity("domain", name, domain.ErrBackupFailed)
		return result
	}

	err := logger.TimedOperation(ctx, action.String(), func() error {
		if action == valueobject.ActionIssue {
			log.Info("requesting new wildcard certificate")
			return o.certbot.Issue(ctx, name, cfg.Email, credPath)
		}
		log.Info("renewing certificate", "days_remaining", status.DaysRemaining)
		return o.certbot.Renew(ctx, name, credPath)
	})
	if err != nil {
		result.Message = fmt.Sprintf("%s failed", action)
		result.Err = domain.WrapEntity("domain", name, err)
		return result
	}

	if action == valueobject.ActionIssue {
		result.Message = "certificate issued"
	} else {
		result.Message = "certificate renewed"
	}
	log.Info(result.Message)
	return result
}

func skipMessage(mode Mode, status CertificateStatus) string {
	switch {
	case !status.Found:
		return "no certificate on record, does not need renewal"
	case !status.ExpiryKnown:
		return "expiry date unknown, left as is"
	case mode == ModeGenerate:
		return fmt.Sprintf("certificate still valid for %d days, skipped", status.DaysRemaining)
	default:
		return fmt.Sprintf("does not need renewal, %d days remaining", status.DaysRemaining)
	}
}
