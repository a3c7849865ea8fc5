package ctl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/notestable"
	"fooddiary/internal/services"
	"fooddiary/internal/storage"
)

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.v.GetString(keyDB)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			version, dirty, err := storage.SchemaVersion(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d", path, version)
			if dirty {
				fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:       "export pdf|xlsx|json",
		Short:     "Export a date range to a file",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(export.FormatPDF), string(export.FormatXLSX), string(export.FormatJSON)},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}
			r, err := parseRange(from, to)
			if err != nil {
				return err
			}
			return a.withServices(func(svc *services.Services) error {
				file, err := svc.Exports.Export(cmd.Context(), r, format)
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = file.Name
				}
				if err := os.WriteFile(path, file.Data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(file.Data))))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default FoodDiary_<from>_<to>.<format>)")
	cmd.Flags().Int("max-days", 366, "longest range that may be exported")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = a.v.BindPFlag(keyMaxDays, cmd.Flags().Lookup("max-days"))
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import json FILE",
		Short: "Import a JSON diary export",
		Long: `Import reads a file written by "export json". Pages already in the
database are replaced by the imported ones; products and categories are
matched by name, ignoring case.`,
		Args: cobra.MatchAll(cobra.ExactArgs(2), func(_ *cobra.Command, args []string) error {
			if args[0] != string(export.FormatJSON) {
				return fmt.Errorf("unsupported import format %q", args[0])
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			return a.withServices(func(svc *services.Services) error {
				res, err := svc.Imports.ImportJSON(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"pages: %d created, %d replaced; notes: %d; products: %d; categories: %d\n",
					res.PagesCreated, res.PagesReplaced, res.NotesCreated, res.ProductsCreated, res.CategoriesCreated)
				return nil
			})
		},
	}
}

func (a *app) renderCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the meal-grouped notes table of one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := core.ParseDate(date)
			if err != nil {
				return err
			}
			return a.withServices(func(svc *services.Services) error {
				table, err := svc.Pages.Table(cmd.Context(), d)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, table.Heading())
				if table.Layout.Empty() {
					fmt.Fprintln(out, "no notes")
					return nil
				}
				if err := notestable.WriteText(out, table.Layout); err != nil {
					return err
				}
				fmt.Fprintf(out, "total: %d kcal\n", table.TotalCalories)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "diary day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func parseRange(from, to string) (core.DateRange, error) {
	var errs core.ValidationErrors
	start, err := core.ParseDate(from)
	if err != nil {
		errs.Add("from", err.Error())
	}
	end, err := core.ParseDate(to)
	if err != nil {
		errs.Add("to", err.Error())
	}
	if err := errs.Err(); err != nil {
		return core.DateRange{}, err
	}
	return core.DateRange{Start: start, End: end}, nil
}

