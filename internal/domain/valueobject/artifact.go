package valueobject

import "path/filepath"

// Artifact maps a file in the certbot live directory to the name it is given
// when copied out for a domain.
type Artifact struct {
	LiveName string
	Suffix   string
	Private  bool
}

var Artifacts = []Artifact{
	{LiveName: "cert.pem", Suffix: ".cert.pem"},
	{LiveName: "chain.pem", Suffix: ".chain.pem"},
	{LiveName: "fullchain.pem", Suffix: ".fullchain.pem"},
	{LiveName: "privkey.pem", Suffix: ".key", Private: true},
}

func (a Artifact) LivePath(liveDir, domain string) string {
	return filepath.Join(liveDir, domain, a.LiveName)
}

func (a Artifact) OutputName(domain string) string {
	return domain + a.Suffix
}

// WildcardSANs returns the bare domain followed by its wildcard form.
func WildcardSANs(domain string) []string {
	return []string{domain, "*." + domain}
}
