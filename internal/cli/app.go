// Package cli is the terminal view layer: it renders catalog and cart state
// and dispatches user intents to the stores. All business rules live in the
// stores; the CLI only formats, guards routes, and reports errors.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/catalog"
	"github.com/fakeshop/storefront/internal/domain/cart"
	"github.com/fakeshop/storefront/internal/domain/product"
	"github.com/fakeshop/storefront/internal/forms"
	"github.com/fakeshop/storefront/internal/session"
	"github.com/fakeshop/storefront/internal/storage"
	"github.com/fakeshop/storefront/pkg/health"
)

// App wires the stores to the REPL commands.
type App struct {
	catalog *catalog.Store
	cart    *cart.Store
	session *session.Store
	source  product.Source
	monitor *health.Monitor
	storage storage.Store
	lg      *zap.Logger
	out     io.Writer
}

// NewApp creates the command surface over the given stores.
func NewApp(
	catalogStore *catalog.Store,
	cartStore *cart.Store,
	sessionStore *session.Store,
	source product.Source,
	monitor *health.Monitor,
	st storage.Store,
	lg *zap.Logger,
	out io.Writer,
) *App {
	return &App{
		catalog: catalogStore,
		cart:    cartStore,
		session: sessionStore,
		source:  source,
		monitor: monitor,
		storage: st,
		lg:      lg,
		out:     out,
	}
}

// Browse renders the current catalog page, or the load/error state when the
// snapshot is not available.
func (a *App) Browse(_ context.Context) error {
	state, fetchErr := a.catalog.FetchState()
	switch state {
	case catalog.StateLoading, catalog.StateIdle:
		fmt.Fprintln(a.out, "Loading products...")
		return nil
	case catalog.StateFailed:
		fmt.Fprintf(a.out, "Failed to load products: %v\nUse 'reload' to try again.\n", fetchErr)
		return nil
	}

	v := a.catalog.View()
	if v.Filtered == 0 {
		fmt.Fprintln(a.out, "No products found.")
		return nil
	}
	for _, p := range v.Items {
		fmt.Fprintf(a.out, "%4d  $%-9s %-22s %s\n", p.ID, p.Price.StringFixed(2), p.Category, p.Title)
	}
	fmt.Fprintf(a.out, "Showing %d products, page %d/%d\n", v.Filtered, v.Page, v.TotalPages)
	return nil
}

// Reload refetches the catalog after a failure.
func (a *App) Reload(ctx context.Context) error {
	if err := a.catalog.Reload(ctx); err != nil {
		fmt.Fprintf(a.out, "Reload failed: %v\n", err)
	}
	return a.Browse(ctx)
}

// Search updates the search term; the catalog applies it after the debounce
// window.
func (a *App) Search(_ context.Context, term string) error {
	a.catalog.Search(term)
	return nil
}

// Category selects a category filter ("all" clears it).
func (a *App) Category(ctx context.Context, name string) error {
	a.catalog.SetCategory(name)
	return a.Browse(ctx)
}

// Sort selects the sort option.
func (a *App) Sort(ctx context.Context, opt string) error {
	switch catalog.SortOption(opt) {
	case catalog.SortDefault, catalog.SortPriceAsc, catalog.SortPriceDesc,
		catalog.SortNameAsc, catalog.SortNameDesc:
		a.catalog.SetSort(catalog.SortOption(opt))
	default:
		fmt.Fprintf(a.out, "Unknown sort option %q.\n", opt)
		return nil
	}
	return a.Browse(ctx)
}

// Page moves to the requested catalog page.
func (a *App) Page(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(a.out, "Not a page number: %q\n", arg)
		return nil
	}
	a.catalog.ChangePage(n)
	return a.Browse(ctx)
}

// Show renders a single product fetched by id.
func (a *App) Show(ctx context.Context, arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(a.out, "Not a product id: %q\n", arg)
		return nil
	}

	p, err := a.source.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			fmt.Fprintf(a.out, "Product %d not found.\n", id)
			return nil
		}
		return errors.Wrap(err, "fetch product")
	}

	fmt.Fprintf(a.out, "%s\n  $%s | %s | rated %.1f (%d reviews)\n  %s\n",
		p.Title, p.Price.StringFixed(2), p.Category, p.Rating.Rate, p.Rating.Count, p.Description)
	return nil
}

// Add puts one unit of the product into the cart.
func (a *App) Add(ctx context.Context, arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(a.out, "Not a product id: %q\n", arg)
		return nil
	}

	p, err := a.source.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			fmt.Fprintf(a.out, "Product %d not found.\n", id)
			return nil
		}
		return errors.Wrap(err, "fetch product")
	}

	a.cart.Add(*p)
	fmt.Fprintf(a.out, "%s added to cart\n", p.Title)
	return nil
}

// Increment raises a cart line item's quantity.
func (a *App) Increment(ctx context.Context, arg string) error {
	return a.mutateByID(ctx, arg, a.cart.Increment)
}

// Decrement lowers a cart line item's quantity, removing it at 1.
func (a *App) Decrement(ctx context.Context, arg string) error {
	return a.mutateByID(ctx, arg, a.cart.Decrement)
}

// Remove deletes a cart line item.
func (a *App) Remove(ctx context.Context, arg string) error {
	return a.mutateByID(ctx, arg, a.cart.Remove)
}

// mutateByID parses the id and applies a cart mutation. A NotFound from the
// store signals an internal inconsistency, so it is logged, not surfaced as
// a user fault.
func (a *App) mutateByID(ctx context.Context, arg string, op func(int) error) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(a.out, "Not a product id: %q\n", arg)
		return nil
	}
	if err := op(id); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			a.lg.Warn("Cart mutation on absent item", zap.Int("id", id))
			fmt.Fprintf(a.out, "No cart item with id %d.\n", id)
			return nil
		}
		return err
	}
	return a.Cart(ctx)
}

// Cart renders the current cart contents.
func (a *App) Cart(_ context.Context) error {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	for _, li := range items {
		fmt.Fprintf(a.out, "%4d  x%-3d $%-9s %s\n", li.ID, li.Quantity, li.Price.StringFixed(2), li.Title)
	}
	fmt.Fprintf(a.out, "Subtotal: $%s\n", a.cart.Subtotal().StringFixed(2))
	return nil
}

// Checkout clears the cart and its persisted entry. No payment or order step
// exists behind it; the receipt id is purely local.
func (a *App) Checkout(_ context.Context) error {
	if a.cart.Len() == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	subtotal := a.cart.Subtotal()
	a.cart.Clear()
	fmt.Fprintf(a.out, "Checkout done. Receipt %s, total $%s.\n", uuid.New(), subtotal.StringFixed(2))
	return nil
}

// Login authenticates with the remote auth source.
func (a *App) Login(ctx context.Context, username, password string) error {
	if redirect, ok := session.Guard(session.RouteLogin, a.session.Authenticated()); !ok {
		fmt.Fprintf(a.out, "Already signed in as %s, back to %s.\n", a.session.Username(), redirect)
		return nil
	}

	err := a.session.Login(ctx, forms.Login{Username: username, Password: password})
	if err != nil {
		return a.reportAuthErr(err)
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", a.session.Username())
	return nil
}

// Register creates an account; it does not sign the new account in.
func (a *App) Register(ctx context.Context, username, email, password, confirm string) error {
	if redirect, ok := session.Guard(session.RouteRegister, a.session.Authenticated()); !ok {
		fmt.Fprintf(a.out, "Already signed in as %s, back to %s.\n", a.session.Username(), redirect)
		return nil
	}

	err := a.session.Register(ctx, forms.Registration{
		Username: username,
		Email:    email,
		Password: password,
		Confirm:  confirm,
	})
	if err != nil {
		return a.reportAuthErr(err)
	}
	fmt.Fprintln(a.out, "Registration done. Use 'login' to sign in.")
	return nil
}

// reportAuthErr prints validation errors inline and transport errors as a
// single dismissible message; neither aborts the REPL.
func (a *App) reportAuthErr(err error) error {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		for _, msg := range verr.Fields {
			fmt.Fprintf(a.out, "  - %s\n", msg)
		}
		return nil
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
	return nil
}

// Logout clears the session; the cart swaps to the anonymous snapshot via
// the identity listener.
func (a *App) Logout(_ context.Context) error {
	a.session.Logout()
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// Status reports the session, cart size, and remote availability.
func (a *App) Status(_ context.Context) error {
	if a.session.Authenticated() {
		fmt.Fprintf(a.out, "Signed in as %s.\n", a.session.Username())
	} else {
		fmt.Fprintln(a.out, "Not signed in.")
	}
	fmt.Fprintf(a.out, "Cart: %d line item(s).\n", a.cart.Len())
	for name, status := range a.monitor.Snapshot() {
		fmt.Fprintf(a.out, "Remote %s: %s\n", name, status)
	}
	return nil
}

// DarkMode toggles the persisted dark-mode preference.
func (a *App) DarkMode(_ context.Context) error {
	current, _ := a.storage.Get(storage.KeyDarkMode)
	next := strconv.FormatBool(current != "true")
	if err := a.storage.Set(storage.KeyDarkMode, next); err != nil {
		return errors.Wrap(err, "persist dark mode")
	}
	fmt.Fprintf(a.out, "Dark mode: %s\n", next)
	return nil
}

func (a *App) authenticated() bool {
	return a.session.Authenticated()
}
