package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// commandSurface is the minimal surface the REPL needs to dispatch commands.
// The real App satisfies it; tests can provide a lightweight stub.
type commandSurface interface {
	authenticated() bool
	Browse(ctx context.Context) error
	Reload(ctx context.Context) error
	Search(ctx context.Context, term string) error
	Category(ctx context.Context, name string) error
	Sort(ctx context.Context, opt string) error
	Page(ctx context.Context, arg string) error
	Show(ctx context.Context, arg string) error
	Add(ctx context.Context, arg string) error
	Increment(ctx context.Context, arg string) error
	Decrement(ctx context.Context, arg string) error
	Remove(ctx context.Context, arg string) error
	Cart(ctx context.Context) error
	Checkout(ctx context.Context) error
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password, confirm string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	DarkMode(ctx context.Context) error
}

const helpText = `Commands:
  browse                                   show the current catalog page
  search <term>                            filter by title or category
  category <name|all>                      filter by category
  sort <default|price-asc|price-desc|name-asc|name-desc>
  page <n>                                 go to page n
  show <id>                                product details
  add <id> | inc <id> | dec <id> | rm <id> cart mutations
  cart                                     show the cart
  checkout                                 clear the cart
  login <username> <password>
  register <username> <email> <password> <confirm>
  logout
  status                                   session, cart, and remote status
  dark                                     toggle dark mode
  reload                                   refetch the catalog
  exit | quit`

// RunREPL reads commands line by line and dispatches them until EOF or
// exit/quit. Handler errors are printed and the loop continues; the REPL
// never aborts on a failed command.
func RunREPL(ctx context.Context, a commandSurface, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt(a))
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "exit" || cmd == "quit" {
			return
		}

		if err := dispatch(ctx, a, out, cmd, args); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func prompt(a commandSurface) string {
	if a.authenticated() {
		return "storefront> "
	}
	return "storefront (guest)> "
}

func dispatch(ctx context.Context, a commandSurface, out io.Writer, cmd string, args []string) error {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch cmd {
	case "help":
		fmt.Fprintln(out, helpText)
		return nil
	case "browse", "list":
		return a.Browse(ctx)
	case "reload":
		return a.Reload(ctx)
	case "search":
		return a.Search(ctx, strings.Join(args, " "))
	case "category":
		return a.Category(ctx, strings.Join(args, " "))
	case "sort":
		return a.Sort(ctx, arg(0))
	case "page":
		return a.Page(ctx, arg(0))
	case "show":
		return a.Show(ctx, arg(0))
	case "add":
		return a.Add(ctx, arg(0))
	case "inc":
		return a.Increment(ctx, arg(0))
	case "dec":
		return a.Decrement(ctx, arg(0))
	case "rm":
		return a.Remove(ctx, arg(0))
	case "cart":
		return a.Cart(ctx)
	case "checkout":
		return a.Checkout(ctx)
	case "login":
		return a.Login(ctx, arg(0), arg(1))
	case "register":
		return a.Register(ctx, arg(0), arg(1), arg(2), arg(3))
	case "logout":
		return a.Logout(ctx)
	case "status":
		return a.Status(ctx)
	case "dark":
		return a.DarkMode(ctx)
	default:
		fmt.Fprintf(out, "Unknown command %q. Type 'help'.\n", cmd)
		return nil
	}
}
