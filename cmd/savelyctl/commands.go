package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/web"
	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog into the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.client.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			fmt.Fprintf(a.out, "%s\ntreatments: %d  clinics: %d  clinic treatments: %d\n",
				summary.Message, summary.Treatments, summary.Clinics, summary.ClinicTreatments)
			return nil
		},
	}
}

func newTreatmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "treatments",
		Short: "List the treatment catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			treatments, err := a.client.ListTreatments(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing treatments: %w", err)
			}

			table := newTable("Treatments", "ID", "Name", "Category")
			for _, t := range treatments {
				table.addRow(false, t.ID, t.Name, t.Category)
			}
			fmt.Fprint(a.out, table.render())
			return nil
		},
	}
}

func newCitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities with clinics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cities, err := a.client.ListCities(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing cities: %w", err)
			}
			for _, city := range cities {
				fmt.Fprintln(a.out, city)
			}
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		city      string
		treatment string
		minPrice  float64
		maxPrice  float64
		minRating float64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search clinics with the same filters as the web search view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minRating != 0 && !entities.IsRatingThreshold(minRating) {
				return fmt.Errorf("--min-rating must be one of %v", entities.RatingThresholds[1:])
			}
			filter := entities.DefaultFilter().
				WithCity(city).
				WithTreatment(treatment).
				WithPriceRange(minPrice, maxPrice).
				WithMinRating(minRating)

			clinics, err := a.search.Search(cmd.Context(), "savelyctl", filter)
			if err != nil {
				return fmt.Errorf("searching clinics: %w", err)
			}
			fmt.Fprint(a.out, clinicTable(filter, clinics).render())
			fmt.Fprintf(a.out, "%d clinics\n", len(clinics))
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "City to filter by")
	cmd.Flags().StringVar(&treatment, "treatment", "", "Treatment id to filter and price by")
	cmd.Flags().Float64Var(&minPrice, "min-price", entities.DefaultMinPrice, "Lower price bound in euros")
	cmd.Flags().Float64Var(&maxPrice, "max-price", entities.DefaultMaxPrice, "Upper price bound in euros")
	cmd.Flags().Float64Var(&minRating, "min-rating", 0, "Minimum rating (4, 4.5 or 4.8)")

	return cmd
}

func clinicTable(filter entities.FilterSelection, clinics []entities.Clinic) *table {
	headers := []string{"ID", "Clinic", "City", "Rating"}
	if filter.HasTreatment() {
		headers = append(headers, "Price", "Days")
	}

	t := newTable("Clinics", headers...)
	for _, c := range clinics {
		row := []string{c.ID, c.Name, c.City, web.Rating(c.Rating)}
		if filter.HasTreatment() {
			days := ""
			if c.TreatmentDuration != nil {
				days = strconv.Itoa(*c.TreatmentDuration)
			}
			row = append(row, web.Euro(c.TreatmentPrice), days)
		}
		t.addRow(false, row...)
	}
	return t
}

func newCompareCmd(a *app) *cobra.Command {
	var treatment string

	cmd := &cobra.Command{
		Use:   "compare CLINIC_ID CLINIC_ID [CLINIC_ID]",
		Short: "Compare a treatment across two or three clinics",
		Args:  cobra.RangeArgs(entities.MinComparisonSize, entities.MaxComparisonSize),
		RunE: func(cmd *cobra.Command, args []string) error {
			if treatment == "" {
				return errors.New("--treatment is required")
			}

			view := a.compare.Compare(cmd.Context(), args, treatment)
			if view.Empty {
				return errors.New("cannot compare: the API returned fewer than two offers")
			}
			fmt.Fprint(a.out, comparisonTable(view.TreatmentName, view.Cards).render())
			return nil
		},
	}

	cmd.Flags().StringVar(&treatment, "treatment", "", "Treatment id to compare")
	return cmd
}
