package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/NHadi/PawSmartMobile-sub001/internal/transport/http/order"
	referencetransport "github.com/NHadi/PawSmartMobile-sub001/internal/transport/http/reference"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	referencetransport.Module,
)
