// Command catalogctl administers the catalog through its HTTP API.
//
//	catalogctl [-api URL] login -email E -password P
//	catalogctl products [-search S] [-category ID] [-page N] [-per-page N]
//	catalogctl product ID
//	catalogctl create -name N -price P -category ID [-description D]
//	catalogctl update ID [-name N] [-price P] [-category ID] [-description D]
//	catalogctl delete ID
//	catalogctl categories
//	catalogctl logout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mytheresa/product-catalog/client"
)

func main() {
	apiURL := flag.String("api", envOr("CATALOG_API_URL", "http://localhost:8080/api"), "API base URL")
	credPath := flag.String("credentials", defaultCredentialsPath(), "file holding the bearer token")
	flag.Parse()

	notes := client.NewNotifications()
	defer printNotifications(notes)

	session, err := client.NewSession(client.NewFileStore(*credPath))
	if err != nil {
		notes.Error(err.Error())
		return
	}
	api := client.New(*apiURL, session, client.WithUnauthenticatedHandler(func() {
		notes.Warning("session expired or revoked; run: catalogctl login")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, api, notes, flag.Args()); err != nil {
		notes.Error(describe(err))
		defer os.Exit(1)
	}
}

func run(ctx context.Context, api *client.Client, notes *client.Notifications, args []string) error {
	if len(args) == 0 {
		return errors.New("missing command (login, logout, products, product, create, update, delete, categories)")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("CATALOG_PASSWORD"), "account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := api.Login(ctx, *email, *password); err != nil {
			return err
		}
		notes.Success("logged in")
		return nil

	case "logout":
		if !api.Session().Authenticated() {
			notes.Info("not logged in")
			return nil
		}
		if err := api.Logout(ctx); err != nil {
			return err
		}
		notes.Success("logged out")
		return nil

	case "products":
		fs := flag.NewFlagSet("products", flag.ContinueOnError)
		search := fs.String("search", "", "substring of name or description")
		category := fs.Uint("category", 0, "category id")
		page := fs.Int("page", 0, "page number")
		perPage := fs.Int("per-page", 0, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := api.ListProducts(ctx, client.ListOptions{
			Search: *search, CategoryID: uint(*category), Page: *page, PerPage: *perPage,
		})
		if err != nil {
			return err
		}
		return printJSON(res)

	case "product":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		p, err := api.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(p)

	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		name := fs.String("name", "", "product name")
		price := fs.String("price", "", "price, e.g. 19.99")
		category := fs.Uint("category", 0, "category id")
		description := fs.String("description", "", "optional description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		amount, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid -price %q", *price)
		}
		in := client.NewProduct{Name: *name, Price: amount, CategoryID: uint(*category)}
		if *description != "" {
			in.Description = description
		}
		p, err := api.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		notes.Success(fmt.Sprintf("product %d created", p.ID))
		return printJSON(p)

	case "update":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		name := fs.String("name", "", "new name")
		price := fs.String("price", "", "new price")
		category := fs.Uint("category", 0, "new category id")
		description := fs.String("description", "", "new description")
		clearDescription := fs.Bool("clear-description", false, "remove the description")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		patch := client.ProductPatch{ClearDescription: *clearDescription}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				patch.Name = name
			case "description":
				patch.Description = description
			case "category":
				c := uint(*category)
				patch.CategoryID = &c
			}
		})
		if *price != "" {
			amount, err := decimal.NewFromString(*price)
			if err != nil {
				return fmt.Errorf("invalid -price %q", *price)
			}
			patch.Price = &amount
		}
		p, err := api.UpdateProduct(ctx, id, patch)
		if err != nil {
			return err
		}
		notes.Success(fmt.Sprintf("product %d updated", p.ID))
		return printJSON(p)

	case "delete":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		if err := api.DeleteProduct(ctx, id); err != nil {
			return err
		}
		notes.Success(fmt.Sprintf("product %d deleted", id))
		return nil

	case "categories":
		cats, err := api.ListCategories(ctx)
		if err != nil {
			return err
		}
		return printJSON(cats)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func idArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, errors.New("missing product id")
	}
	n, err := strconv.ParseUint(args[0], 10, 0)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return uint(n), nil
}

// describe flattens validation errors into one readable line per field.
func describe(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		return err.Error()
	}
	msg := apiErr.Message
	for field, msgs := range apiErr.Errors {
		for _, m := range msgs {
			msg += fmt.Sprintf("\n  %s: %s", field, m)
		}
	}
	return msg
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printNotifications(notes *client.Notifications) {
	for _, n := range notes.List() {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Kind, n.Message)
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".catalogctl-token"
	}
	return filepath.Join(dir, "catalogctl", "token")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
