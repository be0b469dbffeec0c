//go:build js && wasm

// Command navigation-wasm exposes the navigation controller to the admin
// pages as window.adminNavigation.
//
//	adminNavigation.mount({scrollContainer: "main-scroll", refreshDelayMs: 100})
//	adminNavigation.routeChanged(location.pathname)
//	adminNavigation.navigate(() => router.push("/users"))
//	adminNavigation.unmount()
package main

import (
	"syscall/js"
	"time"

	"github.com/R3E-Network/admin_console/internal/config"
	"github.com/R3E-Network/admin_console/internal/logging"
	"github.com/R3E-Network/admin_console/internal/navigation"
	"github.com/R3E-Network/admin_console/internal/navigation/jshost"
)

func main() {
	log := logging.NewDefault("navigation")
	defaults := config.DefaultNavigation()

	var (
		host       = jshost.New(defaults.ScrollContainer, "", jshost.WithLogger(log))
		controller = navigation.FromConfig(host, defaults, navigation.WithLogger(log))
	)

	api := js.Global().Get("Object").New()

	api.Set("mount", js.FuncOf(func(_ js.Value, args []js.Value) any {
		cfg := *defaults
		refreshFunc := ""
		if len(args) > 0 && args[0].Type() == js.TypeObject {
			opts := args[0]
			if v := opts.Get("scrollContainer"); v.Type() == js.TypeString {
				cfg.ScrollContainer = v.String()
			}
			if v := opts.Get("refreshDelayMs"); v.Type() == js.TypeNumber {
				cfg.RefreshDelay = time.Duration(v.Int()) * time.Millisecond
			}
			if v := opts.Get("refreshFunc"); v.Type() == js.TypeString {
				refreshFunc = v.String()
			}
		}
		controller.Unmount()
		host = jshost.New(cfg.ScrollContainer, refreshFunc, jshost.WithLogger(log))
		controller = navigation.FromConfig(host, &cfg, navigation.WithLogger(log))
		controller.Mount()
		return nil
	}))

	api.Set("unmount", js.FuncOf(func(js.Value, []js.Value) any {
		controller.Unmount()
		return nil
	}))

	api.Set("routeChanged", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			controller.RouteChanged(args[0].String())
		}
		return nil
	}))

	api.Set("navigate", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 || args[0].Type() != js.TypeFunction {
			return nil
		}
		fn := args[0]
		controller.Navigate(func() {
			if err := jshost.Invoke(fn); err != nil {
				log.WithError(err).Error("navigate callback failed")
			}
		})
		return nil
	}))

	api.Set("state", js.FuncOf(func(js.Value, []js.Value) any {
		return controller.State().String()
	}))

	js.Global().Set("adminNavigation", api)
	log.Entry().Info("navigation controller ready")

	select {}
}
