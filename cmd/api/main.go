package main

import (
	"go.uber.org/fx"

	"github.com/NHadi/PawSmartMobile-sub001/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
