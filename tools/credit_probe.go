package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/provider"
	"creditgw/internal/services/credit"
)

type argList []string

func (a *argList) String() string     { return strings.Join(*a, ",") }
func (a *argList) Set(v string) error { *a = append(*a, v); return nil }

func main() {
	var args argList
	providerID := flag.String("provider", "", "provider id (empty lists providers)")
	op := flag.String("op", "", "search_client|preapproved|submit|check_status|check_auth|create_order|order_status")
	timeout := flag.Duration("timeout", 45*time.Second, "overall deadline")
	flag.Var(&args, "arg", "operation argument key=value (repeatable)")
	flag.Parse()

	cfg := config.Load()
	config.SetupLogging(cfg)

	settings := config.NewProviderSettings(cfg.App.SettingsFile)
	auditLog := audit.NewLogger(audit.NewFileSink(cfg.App.CreditLogFile))
	reg := provider.NewRegistry()
	credit.Bootstrap(reg, credit.Deps{Settings: settings, Audit: auditLog})
	ctrl := credit.NewController(reg, nil)

	if *providerID == "" || *op == "" {
		printJSON(ctrl.Providers())
		return
	}

	bag := provider.Args{}
	for _, kv := range args {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "bad -arg %q, want key=value\n", kv)
			os.Exit(2)
		}
		bag[strings.TrimSpace(k)] = v
	}
	if *op == credit.OpCreateOrder && bag.String("order_id", "") == "" {
		bag["order_id"] = "probe-" + uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ops := map[string]func(context.Context, string, provider.Args) provider.Result{
		credit.OpSearchClient: ctrl.SearchClient,
		credit.OpPreapproved:  ctrl.Preapproved,
		credit.OpSubmit:       ctrl.Submit,
		credit.OpCheckStatus:  ctrl.CheckStatus,
		credit.OpCheckAuth:    ctrl.CheckAuth,
		credit.OpCreateOrder:  ctrl.CreateOrder,
		credit.OpOrderStatus:  ctrl.OrderStatus,
	}
	run, ok := ops[*op]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -op %q\n", *op)
		os.Exit(2)
	}
	res := run(ctx, *providerID, bag)
	printJSON(res)
	if !res.Success {
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
