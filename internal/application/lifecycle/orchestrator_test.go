package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/entity"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/certbot"
	"github.com/lite-lake/wildcert/internal/infrastructure/credentials"
)

// scriptedRunner plays certbot: listings answer `certificates`, fail makes
// `certonly` exit non-zero for a domain. At each certonly call it records
// what the certbot plugin would see on disk.
type scriptedRunner struct {
	listings map[string]string
	queryErr map[string]error
	fail     map[string]error
	backups  string
	// onCertonly runs before each certonly call returns.
	onCertonly func()

	calls       [][]string
	credentials []string
	backupSeen  []bool
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.calls = append(r.calls, args)
	if args[0] == "certificates" {
		d := args[2]
		if err := r.queryErr[d]; err != nil {
			return "", "", err
		}
		return r.listings[d], "", nil
	}

	data, err := os.ReadFile(argValue(args, "--dns-cloudflare-credentials"))
	if err == nil {
		r.credentials = append(r.credentials, string(data))
	}
	_, err = os.Stat(r.backups)
	r.backupSeen = append(r.backupSeen, err == nil)
	if r.onCertonly != nil {
		r.onCertonly()
	}
	return "", "", r.fail[sanList(args)[0]]
}

func (r *scriptedRunner) certonlyCalls() [][]string {
	var out [][]string
	for _, c := range r.calls {
		if c[0] == "certonly" {
			out = append(out, c)
		}
	}
	return out
}

func argValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func sanList(args []string) []string {
	var out []string
	for i, a := range args {
		if a == "-d" && i+1 < len(args) {
			out = append(out, args[i+1])
		}
	}
	return out
}

type testEnv struct {
	runner  *scriptedRunner
	workDir string
	liveDir string
	dest    string
	creds   *credentials.Manager
	orch    *Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		workDir: filepath.Join(root, "work"),
		liveDir: filepath.Join(root, "live"),
		dest:    filepath.Join(root, "dest"),
	}
	if err := os.MkdirAll(env.workDir, 0755); err != nil {
		t.Fatal(err)
	}
	env.runner = &scriptedRunner{
		listings: map[string]string{},
		queryErr: map[string]error{},
		fail:     map[string]error{},
		backups:  filepath.Join(env.dest, "backups", "20250101_150000"),
	}
	env.creds = credentials.NewManager(env.workDir)
	env.orch = env.build(nil)
	return env
}

func (e *testEnv) build(modify func(*OrchestratorConfig)) *Orchestrator {
	client := certbot.NewClient(e.runner, entity.CertbotConfig{
		Binary:             "certbot",
		Server:             "https://acme.test/directory",
		LiveDir:            e.liveDir,
		PropagationSeconds: 60,
	})
	cfg := &OrchestratorConfig{
		Certbot:     client,
		Inspector:   NewExpiryInspector(client, fixedNow),
		Backups:     NewBackupManager(e.dest, e.liveDir, fixedNow),
		Credentials: e.creds,
	}
	if modify != nil {
		modify(cfg)
	}
	return NewOrchestrator(cfg)
}

func testConfig(domains ...string) *entity.Config {
	return &entity.Config{
		Cloudflare: entity.CloudflareConfig{APIToken: *valueobject.NewSecretRefPlain("tok-123")},
		Email:      "ops@example.com",
		Domains:    domains,
	}
}

func TestGenerate_IssuesMissingCertificate(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["a.com"] = noCertsListing

	report, err := env.orch.Generate(context.Background(), testConfig("a.com"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	calls := env.runner.certonlyCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one issuance, got %d", len(calls))
	}
	args := calls[0]
	if got := sanList(args); !slices.Equal(got, []string{"a.com", "*.a.com"}) {
		t.Errorf("SANs = %v", got)
	}
	if argValue(args, "--email") != "ops@example.com" {
		t.Errorf("missing --email in %v", args)
	}
	for _, flag := range []string{"--agree-tos", "--non-interactive", "--dns-cloudflare"} {
		if !slices.Contains(args, flag) {
			t.Errorf("missing %s in %v", flag, args)
		}
	}
	if slices.Contains(args, "--force-renewal") {
		t.Error("first issuance must not force renewal")
	}

	if len(env.runner.credentials) != 1 || env.runner.credentials[0] != "dns_cloudflare_api_token = tok-123\n" {
		t.Errorf("credential file during issuance = %q", env.runner.credentials)
	}
	if _, err := os.Stat(env.creds.Path()); !os.IsNotExist(err) {
		t.Error("credential file should be removed after the run")
	}
	if !env.runner.backupSeen[0] {
		t.Error("backup should be taken before issuance")
	}

	if report.HasFailures() || report.Results[0].Action != valueobject.ActionIssue {
		t.Errorf("unexpected report: %+v", report.Results[0])
	}
}

func TestRenew_ForcesRenewalNearExpiry(t *testing.T) {
	env := newTestEnv(t)
	writeLive(t, env.liveDir, "b.com")
	env.runner.listings["b.com"] = listing(testNow.AddDate(0, 0, 2))

	report, err := env.orch.Renew(context.Background(), testConfig("b.com"))
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}

	calls := env.runner.certonlyCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one renewal, got %d", len(calls))
	}
	if !slices.Contains(calls[0], "--force-renewal") {
		t.Error("renewal should pass --force-renewal")
	}
	if slices.Contains(calls[0], "--email") {
		t.Error("renewal should not pass --email")
	}
	if _, err := os.Stat(filepath.Join(env.runner.backups, "b.com.key")); err != nil {
		t.Errorf("expected key in backup: %v", err)
	}
	if report.Results[0].Action != valueobject.ActionRenew || !report.Results[0].Success() {
		t.Errorf("unexpected result: %+v", report.Results[0])
	}
}

func TestRenew_SkipsHealthyCertificate(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["c.com"] = listing(testNow.AddDate(0, 0, 90))

	report, err := env.orch.Renew(context.Background(), testConfig("c.com"))
	if err != nil {
		t.Fatal(err)
	}
	if len(env.runner.certonlyCalls()) != 0 {
		t.Error("healthy certificate should not be renewed")
	}
	if _, err := os.Stat(filepath.Join(env.dest, "backups")); !os.IsNotExist(err) {
		t.Error("skipped domain should not be backed up")
	}
	if report.HasFailures() || report.Results[0].Action != valueobject.ActionSkip {
		t.Errorf("unexpected result: %+v", report.Results[0])
	}
}

func TestRenew_SkipsMissingCertificate(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["a.com"] = noCertsListing

	report, err := env.orch.Renew(context.Background(), testConfig("a.com"))
	if err != nil {
		t.Fatal(err)
	}
	if len(env.runner.certonlyCalls()) != 0 {
		t.Error("renew must never issue")
	}
	if report.Results[0].Action != valueobject.ActionSkip {
		t.Errorf("Action = %v, want skip", report.Results[0].Action)
	}
}

func TestGenerate_SkipsValidCertificate(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["c.com"] = listing(testNow.AddDate(0, 0, 30))

	report, err := env.orch.Generate(context.Background(), testConfig("c.com"))
	if err != nil {
		t.Fatal(err)
	}
	if len(env.runner.certonlyCalls()) != 0 {
		t.Error("valid certificate should be left alone")
	}
	if report.Results[0].Action != valueobject.ActionSkip {
		t.Errorf("Action = %v, want skip", report.Results[0].Action)
	}
}

func TestGenerate_DomainsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["a.com"] = noCertsListing
	env.runner.listings["b.com"] = noCertsListing
	env.runner.fail["a.com"] = errors.New("exit status 1")

	report, err := env.orch.Generate(context.Background(), testConfig("a.com", "b.com"))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if !errors.Is(report.Results[0].Err, domain.ErrCertObtainFailed) {
		t.Errorf("a.com error = %v, want ErrCertObtainFailed", report.Results[0].Err)
	}
	if !report.Results[1].Success() {
		t.Errorf("b.com should still be issued: %v", report.Results[1].Err)
	}
	if report.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", report.Failed())
	}
	if _, err := os.Stat(env.creds.Path()); !os.IsNotExist(err) {
		t.Error("credential file should be removed after a failed run")
	}
}

func TestGenerate_QueryFailureIsNotIssued(t *testing.T) {
	env := newTestEnv(t)
	env.runner.queryErr["a.com"] = errors.New("certbot: not found")

	report, err := env.orch.Generate(context.Background(), testConfig("a.com"))
	if err != nil {
		t.Fatal(err)
	}
	if len(env.runner.certonlyCalls()) != 0 {
		t.Error("a failed query must not lead to issuance")
	}
	if report.Results[0].Success() {
		t.Error("query failure should be recorded as a failure")
	}
}

type failingBackups struct{ calls int }

func (f *failingBackups) Backup(ctx context.Context, name string) bool {
	f.calls++
	return false
}

func TestRun_BackupFailureSkipsDomain(t *testing.T) {
	for _, mode := range []Mode{ModeGenerate, ModeRenew} {
		t.Run(mode.String(), func(t *testing.T) {
			env := newTestEnv(t)
			env.runner.listings["b.com"] = listing(testNow.AddDate(0, 0, 5))
			backups := &failingBackups{}
			orch := env.build(func(c *OrchestratorConfig) { c.Backups = backups })

			report, err := orch.run(context.Background(), mode, testConfig("b.com"))
			if err != nil {
				t.Fatal(err)
			}
			if backups.calls != 1 {
				t.Errorf("backup calls = %d, want 1", backups.calls)
			}
			if len(env.runner.certonlyCalls()) != 0 {
				t.Error("certbot must not run after a failed backup")
			}
			res := report.Results[0]
			if res.Action != valueobject.ActionBackupFailed || !errors.Is(res.Err, domain.ErrBackupFailed) {
				t.Errorf("unexpected result: %+v", res)
			}
		})
	}
}

type fakeLock struct {
	err      error
	released bool
}

func (l *fakeLock) Acquire() error { return l.err }
func (l *fakeLock) Release() error { l.released = true; return nil }

func TestRun_LockHeld(t *testing.T) {
	env := newTestEnv(t)
	lock := &fakeLock{err: domain.ErrAlreadyRunning}
	orch := env.build(func(c *OrchestratorConfig) { c.Lock = lock })

	_, err := orch.Generate(context.Background(), testConfig("a.com"))
	if !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("error = %v, want ErrAlreadyRunning", err)
	}
	if len(env.runner.calls) != 0 {
		t.Error("nothing should run without the lock")
	}
	if lock.released {
		t.Error("a lock never acquired should not be released")
	}
}

func TestRun_LockReleased(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["c.com"] = listing(testNow.AddDate(0, 0, 90))
	lock := &fakeLock{}
	orch := env.build(func(c *OrchestratorConfig) { c.Lock = lock })

	if _, err := orch.Renew(context.Background(), testConfig("c.com")); err != nil {
		t.Fatal(err)
	}
	if !lock.released {
		t.Error("lock should be released at the end of the run")
	}
}

func TestRun_CredentialFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	cfg := testConfig("a.com")
	cfg.Cloudflare.APIToken = valueobject.SecretRef{}

	_, err := env.orch.Generate(context.Background(), cfg)
	if !errors.Is(err, domain.ErrCredentialFile) {
		t.Fatalf("error = %v, want ErrCredentialFile", err)
	}
	if len(env.runner.calls) != 0 {
		t.Error("no domain should be processed without credentials")
	}
}

type fakeZones struct {
	missing map[string]bool
}

func (z *fakeZones) Verify(ctx context.Context, name string) (string, error) {
	if z.missing[name] {
		return "", domain.ErrZoneNotFound
	}
	return name, nil
}

func TestRun_ZonePreflight(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["a.com"] = noCertsListing
	env.runner.listings["b.com"] = noCertsListing
	orch := env.build(func(c *OrchestratorConfig) {
		c.Zones = &fakeZones{missing: map[string]bool{"a.com": true}}
	})

	report, err := orch.Generate(context.Background(), testConfig("a.com", "b.com"))
	if err != nil {
		t.Fatal(err)
	}
	if res := report.Results[0]; res.Action != valueobject.ActionPreflightFailed || !errors.Is(res.Err, domain.ErrZoneNotFound) {
		t.Errorf("a.com result = %+v", res)
	}
	calls := env.runner.certonlyCalls()
	if len(calls) != 1 || sanList(calls[0])[0] != "b.com" {
		t.Errorf("only b.com should be issued, calls = %v", calls)
	}
}

// countingScope records whether the token was ever written.
type countingScope struct {
	inner CredentialScope
	calls int
}

func (s *countingScope) With(token string, fn func(path string) error) error {
	s.calls++
	return s.inner.With(token, fn)
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	scope := &countingScope{inner: env.creds}
	lock := &fakeLock{}
	orch := env.build(func(c *OrchestratorConfig) {
		c.Credentials = scope
		c.Lock = lock
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := orch.Generate(ctx, testConfig("a.com", "b.com"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if scope.calls != 0 {
		t.Error("credential file must not be written after cancellation")
	}
	if lock.released {
		t.Error("lock should not be taken after cancellation")
	}
	if len(env.runner.calls) != 0 || len(report.Results) != 0 {
		t.Errorf("nothing should run, calls = %v", env.runner.calls)
	}
}

func TestRun_CanceledMidRun(t *testing.T) {
	env := newTestEnv(t)
	env.runner.listings["a.com"] = noCertsListing
	env.runner.listings["b.com"] = noCertsListing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.runner.onCertonly = cancel

	report, err := env.orch.Generate(ctx, testConfig("a.com", "b.com"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if n := len(env.runner.certonlyCalls()); n != 1 {
		t.Errorf("certonly calls = %d, want 1", n)
	}
	if res := report.Results[1]; res.Domain != "b.com" || !errors.Is(res.Err, context.Canceled) {
		t.Errorf("b.com result = %+v", res)
	}
	if _, err := os.Stat(env.creds.Path()); !os.IsNotExist(err) {
		t.Error("credential file should be removed")
	}
}

func TestDecide(t *testing.T) {
	missing := CertificateStatus{}
	due := CertificateStatus{Found: true, ExpiryKnown: true, DaysRemaining: 29}
	valid := CertificateStatus{Found: true, ExpiryKnown: true, DaysRemaining: 30}
	unknown := CertificateStatus{Found: true}
	failed := CertificateStatus{QueryErr: errors.New("boom")}

	tests := []struct {
		name   string
		mode   Mode
		status CertificateStatus
		want   valueobject.Action
	}{
		{"generate missing", ModeGenerate, missing, valueobject.ActionIssue},
		{"generate due", ModeGenerate, due, valueobject.ActionRenew},
		{"generate valid", ModeGenerate, valid, valueobject.ActionSkip},
		{"generate unknown expiry", ModeGenerate, unknown, valueobject.ActionSkip},
		{"generate query failed", ModeGenerate, failed, valueobject.ActionSkip},
		{"renew missing", ModeRenew, missing, valueobject.ActionSkip},
		{"renew due", ModeRenew, due, valueobject.ActionRenew},
		{"renew valid", ModeRenew, valid, valueobject.ActionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.mode, tt.status); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}
