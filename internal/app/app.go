package app

import (
	"go.uber.org/fx"

	"github.com/NHadi/PawSmartMobile-sub001/internal/commerce"
	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/kvstore"
	"github.com/NHadi/PawSmartMobile-sub001/internal/logger"
	"github.com/NHadi/PawSmartMobile-sub001/internal/messaging"
	"github.com/NHadi/PawSmartMobile-sub001/internal/observability"
	"github.com/NHadi/PawSmartMobile-sub001/internal/refcache"
	"github.com/NHadi/PawSmartMobile-sub001/internal/resolver"
	grpcserver "github.com/NHadi/PawSmartMobile-sub001/internal/server/grpc"
	httpserver "github.com/NHadi/PawSmartMobile-sub001/internal/server/http"
	serviceorder "github.com/NHadi/PawSmartMobile-sub001/internal/service/order"
	servicereference "github.com/NHadi/PawSmartMobile-sub001/internal/service/reference"
	transporthttp "github.com/NHadi/PawSmartMobile-sub001/internal/transport/http"
	"github.com/NHadi/PawSmartMobile-sub001/internal/worker"
	workerpayment "github.com/NHadi/PawSmartMobile-sub001/internal/worker/payment"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	kvstore.Module,
	refcache.Module,
	commerce.Module,
	resolver.Module,
	messaging.Module,
	serviceorder.Module,
	servicereference.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerpayment.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
