package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/tacotown/internal/checkout"
	"github.com/joao-fontenele/tacotown/internal/config"
	"github.com/joao-fontenele/tacotown/internal/domain"
	"github.com/joao-fontenele/tacotown/internal/logging"
)

const usage = `usage: checkout <command> [flags]

commands:
  add      -name NAME -price PRICE [-qty N]   add an item to the cart
  summary                                     show the cart and totals
  profile  -name -phone -address -pincode     save delivery details
  submit   [-cod] [profile flags]             place the order
  clear                                       empty the cart
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Service: "tacotown-checkout",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Output:  os.Stderr,
	})

	drafts, err := checkout.NewFileDrafts(cfg.Checkout.DraftsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client := checkout.NewClient(cfg.Checkout.APIBaseURL, checkout.WithTimeout(cfg.Checkout.SubmitTimeout))
	session := checkout.NewSession(drafts, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, session, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				fmt.Fprintln(os.Stderr, "-", p)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, session *checkout.Session, command string, args []string, out io.Writer) error {
	switch command {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		name := fs.String("name", "", "menu item name")
		price := fs.String("price", "", "unit price")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return errors.New("add: -name is required")
		}
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("add: invalid price %q", *price)
		}
		if err := session.Cart().AddItem(ctx, domain.LineItem{Name: strings.TrimSpace(*name), Price: p, Quantity: *qty}); err != nil {
			return err
		}
		return printSummary(ctx, session, out)

	case "summary":
		return printSummary(ctx, session, out)

	case "profile":
		fs := flag.NewFlagSet("profile", flag.ContinueOnError)
		profile := profileFlags(fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := session.SaveProfile(ctx, *profile); err != nil {
			return err
		}
		fmt.Fprintln(out, "profile saved")
		return nil

	case "submit":
		fs := flag.NewFlagSet("submit", flag.ContinueOnError)
		cod := fs.Bool("cod", false, "pay cash on delivery")
		edits := profileFlags(fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		method := domain.PaymentMethodOnline
		if *cod {
			method = domain.PaymentMethodCOD
		}
		receipt, err := session.PlaceOrder(ctx, *edits, method)
		if receipt.OrderID != "" {
			fmt.Fprintf(out, "order %s placed for %s, total INR %s\n",
				receipt.OrderID, receipt.Profile.Name, receipt.Totals.Display().Total)
		}
		return err

	case "clear":
		if err := session.Cart().ClearCart(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "cart cleared")
		return nil

	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func profileFlags(fs *flag.FlagSet) *domain.CustomerProfile {
	p := &domain.CustomerProfile{}
	fs.StringVar(&p.Name, "name", "", "customer name")
	fs.StringVar(&p.Phone, "phone", "", "10 digit mobile number")
	fs.StringVar(&p.Email, "email", "", "email for the confirmation")
	fs.StringVar(&p.Address, "address", "", "delivery address")
	fs.StringVar(&p.Landmark, "landmark", "", "nearby landmark")
	fs.StringVar(&p.Pincode, "pincode", "", "6 digit pincode")
	return p
}

func printSummary(ctx context.Context, session *checkout.Session, out io.Writer) error {
	summary, err := session.Summary(ctx)
	if err != nil {
		return err
	}
	if !summary.CanSubmit() {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}
	for _, item := range summary.Items {
		fmt.Fprintf(out, "%3d x %-24s %10s\n", item.Quantity, item.Name, item.LineTotal().StringFixed(2))
	}
	d := summary.Totals.Display()
	fmt.Fprintf(out, "%-30s %10s\n", "Subtotal", d.Subtotal)
	fmt.Fprintf(out, "%-30s %10s\n", "Delivery", d.DeliveryFee)
	fmt.Fprintf(out, "%-30s %10s\n", "Total", d.Total)
	return nil
}
