package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/app/system/authutil"
	"github.com/dalemusser/bloodconnect/internal/app/system/directory"
	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| create-admin                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type adminInput struct {
	Email string `validate:"required,simpleemail" label:"--email"`
	Name  string `validate:"required,max=100" label:"--name"`
}

func createAdminCmd(c *cli) *cobra.Command {
	var in adminInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create or promote an administrator account",
		Long: `Marks --email as an administrator. When no account exists for the
address, one is created with the password from BLOODCONNECT_ADMIN_PASSWORD,
or read from the first line of stdin when that variable is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Email = normalize.Email(in.Email)
			in.Name = normalize.Name(in.Name)
			if res := inputval.Validate(in); res.HasErrors() {
				return errors.New(res.All())
			}
			return c.createAdmin(cmd.Context(), in)
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Administrator email (required)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) createAdmin(ctx context.Context, in adminInput) error {
	ctx, cancel := context.WithTimeout(ctxOrBackground(ctx), timeouts.Medium())
	defer cancel()

	accounts := accountstore.New(c.db)
	_, err := accounts.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		password, err := c.adminPassword()
		if err != nil {
			return err
		}
		if err := authutil.ValidatePassword(password); err != nil {
			return err
		}
		hash, err := authutil.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if _, err := accounts.CreatePassword(ctx, in.Email, in.Name, hash); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		c.log.Info("account created", zap.String("email", in.Email))
	case err != nil:
		return fmt.Errorf("look up account: %w", err)
	default:
		c.log.Info("account exists; password unchanged", zap.String("email", in.Email))
	}

	if _, err := adminstore.New(c.db).Upsert(ctx, in.Email, in.Name); err != nil {
		return fmt.Errorf("mark admin: %w", err)
	}
	fmt.Fprintf(c.out, "%s is an administrator\n", in.Email)
	return nil
}

// adminPassword prefers the environment and falls back to one stdin line.
func (c *cli) adminPassword() (string, error) {
	if c.cfg.AdminPassword != "" {
		return c.cfg.AdminPassword, nil
	}
	if p := os.Getenv("BLOODCONNECT_ADMIN_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password: set BLOODCONNECT_ADMIN_PASSWORD or pipe it on stdin")
	}
	return line, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| export-donors                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func exportDonorsCmd(c *cli) *cobra.Command {
	var (
		f   directory.FilterState
		out string
	)

	cmd := &cobra.Command{
		Use:   "export-donors",
		Short: "Write the donor directory as CSV",
		Long: `Applies the same filters as the admin directory and writes the CSV
export. --out defaults to stdout; pass "auto" for donors-YYYY-MM-DD.csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f = directory.FilterState{
				Search:       normalize.QueryParam(f.Search),
				BloodGroup:   normalize.Filter(normalize.BloodGroup(f.BloodGroup)),
				District:     normalize.Filter(f.District),
				Availability: normalize.Filter(strings.ToLower(f.Availability)),
			}
			switch f.Availability {
			case "", directory.Available, directory.Unavailable:
			default:
				return fmt.Errorf("--availability must be %q or %q", directory.Available, directory.Unavailable)
			}
			return c.exportDonors(cmd.Context(), f, out)
		},
	}
	cmd.Flags().StringVar(&f.Search, "search", "", "Substring of name, email or roll number")
	cmd.Flags().StringVar(&f.BloodGroup, "blood-group", "", "Exact blood group (e.g. O+)")
	cmd.Flags().StringVar(&f.District, "district", "", "Exact district")
	cmd.Flags().StringVar(&f.Availability, "availability", "", "available or unavailable")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout, \"auto\" for a dated name)")
	return cmd
}

func (c *cli) exportDonors(ctx context.Context, f directory.FilterState, out string) error {
	ctx, cancel := context.WithTimeout(ctxOrBackground(ctx), timeouts.Long())
	defer cancel()

	all, err := directory.Load(ctx, donorstore.New(c.db))
	if err != nil {
		return fmt.Errorf("load donors: %w", err)
	}
	rows := directory.Filter(all, f)

	w := c.out
	if out != "" {
		if out == "auto" {
			out = directory.ExportFilename(time.Now())
		}
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer file.Close()
		w = file
	}

	n, err := directory.Export(w, rows)
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	c.log.Info("donor export written",
		zap.Int("rows", n),
		zap.Int("total", len(all)),
		zap.String("out", out))
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| list-emergencies                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func listEmergenciesCmd(c *cli) *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "list-emergencies",
		Short: "Print recent emergency requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			return c.listEmergencies(cmd.Context(), limit)
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 20, "Maximum rows (0 for all)")
	return cmd
}

func (c *cli) listEmergencies(ctx context.Context, limit int64) error {
	ctx, cancel := context.WithTimeout(ctxOrBackground(ctx), timeouts.Medium())
	defer cancel()

	reqs, err := emergencystore.New(c.db).ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list emergencies: %w", err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tBLOOD\tDISTRICT\tURGENCY\tCONTACT\tPHONE\tSTATUS")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.BloodGroup,
			r.District,
			r.Urgency,
			r.ContactName,
			r.ContactPhone,
			r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%d request(s)\n", len(reqs))
	return nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
