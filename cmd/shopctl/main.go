// Command shopctl browses the storefront catalog and checks out a cart from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hongminglow/storefront/internal/cart"
	"github.com/hongminglow/storefront/internal/client"
	"github.com/hongminglow/storefront/internal/models"
)

const usage = `usage: shopctl [-addr URL] [-token TOKEN] <command> [flags]

commands:
  products                         list the catalog
  checkout -item ID:QTY [...]      build a cart from the live catalog and check out
  signup -email E -password P      create an account
  signin -email E -password P      sign in and print the bearer token
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("shopctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	addr := global.String("addr", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL")
	token := global.String("token", os.Getenv("STOREFRONT_TOKEN"), "bearer token")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	if global.NArg() == 0 {
		return errors.New(usage)
	}

	c := client.New(*addr)
	c.SetToken(*token)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "products":
		return listProducts(ctx, c, out)
	case "checkout":
		return checkoutCmd(ctx, c, rest, out)
	case "signup", "signin":
		return authCmd(ctx, c, cmd, rest, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func listProducts(ctx context.Context, c *client.Client, out io.Writer) error {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", p.ID, p.Name, p.Price, p.Stock)
	}
	return tw.Flush()
}

// itemFlag collects repeated -item ID:QTY values.
type itemFlag []item

type item struct {
	ProductID int64
	Quantity  int
}

func (f *itemFlag) String() string { return fmt.Sprint(*f) }

func (f *itemFlag) Set(v string) error {
	it, err := parseItem(v)
	if err != nil {
		return err
	}
	*f = append(*f, it)
	return nil
}

func parseItem(v string) (item, error) {
	idPart, qtyPart, found := strings.Cut(v, ":")
	if !found {
		qtyPart = "1"
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil || id <= 0 {
		return item{}, fmt.Errorf("invalid product id in %q", v)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyPart))
	if err != nil || qty <= 0 {
		return item{}, fmt.Errorf("invalid quantity in %q", v)
	}
	return item{ProductID: id, Quantity: qty}, nil
}

func checkoutCmd(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var items itemFlag
	fs.Var(&items, "item", "product to buy as ID:QTY (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("checkout needs at least one -item ID:QTY")
	}

	products, err := c.ListProducts(ctx)
	if err != nil {
		return err
	}
	catalog := make(map[int64]models.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	crt := cart.New()
	for _, it := range items {
		p, ok := catalog[it.ProductID]
		if !ok {
			return fmt.Errorf("product %d is not in the catalog", it.ProductID)
		}
		for range it.Quantity {
			if err := crt.Add(p); err != nil {
				return fmt.Errorf("%s: %w (stock %d)", p.Name, err, p.Stock)
			}
		}
	}

	receipt, err := c.Checkout(ctx, crt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "order %d confirmed\ntotal: %d\ntransfer to: %s\n", receipt.OrderID, receipt.Total, receipt.BankAccount)
	return nil
}

func authCmd(ctx context.Context, c *client.Client, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("STOREFRONT_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd == "signup" {
		created, err := c.SignUp(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s (role %s)\n", created.User.Email, created.Role)
		return nil
	}

	signed, err := c.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "signed in as %s (role %s), token expires %s\n%s\n",
		signed.User.Email, signed.Role, signed.ExpiresAt.Format("2006-01-02 15:04:05 MST"), signed.Token)
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
