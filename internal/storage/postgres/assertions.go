package postgres

import (
	"github.com/salonbook/salonbook/internal/service/catalog"
	"github.com/salonbook/salonbook/internal/service/ledger"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ catalog.Repo   = (*Store)(nil)
	_ catalog.Writer = (*Store)(nil)
	_ ledger.Repo    = (*Store)(nil)
	_ ledger.Writer  = (*Store)(nil)
)
