package constants

import "os"

const (
	DefaultConfigFile   = "config.yml"
	DefaultCertbotBin   = "certbot"
	DefaultLiveDir      = "/etc/letsencrypt/live"
	LetsEncryptURL      = "https://acme-v02.api.letsencrypt.org/directory"
	LetsEncryptStageURL = "https://acme-staging-v02.api.letsencrypt.org/directory"
	DefaultSSHPort      = 22

	CredentialFileName = "cloudflare.ini"
	LockFileName       = ".wildcert.lock"
	BackupDirName      = "backups"
	BackupStampLayout  = "20060102_150405"
	ExpiryDateLayout   = "2006-01-02"
	RemoteTempFileFmt  = ".wildcert-%d-%s.tmp"
)

const (
	FilePermissionOwnerRW os.FileMode = 0600
	FilePermissionPublic  os.FileMode = 0644
	DirPermission         os.FileMode = 0755
)
