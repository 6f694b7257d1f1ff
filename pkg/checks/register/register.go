package register

import (
	"github.com/caas-team/kestrel/pkg/checks"
	"github.com/caas-team/kestrel/pkg/checks/dns"
	"github.com/caas-team/kestrel/pkg/checks/ping"
	"github.com/caas-team/kestrel/pkg/checks/scrape"
	"github.com/caas-team/kestrel/pkg/checks/web"
)

var (
	// RegisteredChecks maps check names to their routine.
	// The name is what asset files reference in their check specs;
	// new checks need an entry here.
	RegisteredChecks = map[string]checks.RunFunc{
		dns.CheckName:    dns.Run,
		ping.CheckName:   ping.Run,
		scrape.CheckName: scrape.Run,
		web.CheckName:    web.Run,
	}
)
