package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/internal/service"
	"github.com/bentansusanto/travel-api/pkg/config"
)

// seedFile is the YAML layout accepted by `tourctl seed`. States and
// destinations refer to their parents by ISO code, state name and category
// code, so the file carries no generated ids.
type seedFile struct {
	Users        []domain.User               `yaml:"users"`
	Countries    []seedCountry               `yaml:"countries"`
	Categories   []dto.CreateCategoryRequest `yaml:"categories"`
	Destinations []seedDestination           `yaml:"destinations"`
}

type seedCountry struct {
	ISO       string      `yaml:"iso"`
	Name      string      `yaml:"name"`
	Flag      string      `yaml:"flag"`
	PhoneCode string      `yaml:"phone_code"`
	Currency  string      `yaml:"currency"`
	States    []seedState `yaml:"states"`
}

type seedState struct {
	Name      string   `yaml:"name"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

type seedDestination struct {
	Country      string                   `yaml:"country"`
	State        string                   `yaml:"state"`
	Category     string                   `yaml:"category"`
	Price        string                   `yaml:"price"`
	Translations []dto.TranslationRequest `yaml:"translations"`
}

// seedResult counts what a run created
type seedResult struct {
	Users        int
	Countries    int
	States       int
	Categories   int
	Destinations int
}

func (r seedResult) String() string {
	return fmt.Sprintf("users=%d countries=%d states=%d categories=%d destinations=%d",
		r.Users, r.Countries, r.States, r.Categories, r.Destinations)
}

func parseSeedFile(raw []byte) (*seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// applySeed writes the file through the catalog service. Countries,
// categories and destinations that already exist (by ISO, code and slug) are
// skipped, and so are the states of a skipped country, so a file can be
// applied more than once.
func applySeed(ctx context.Context, catalog service.CatalogService, putUser func(context.Context, *domain.User) error, f *seedFile) (seedResult, error) {
	var res seedResult

	for i := range f.Users {
		u := f.Users[i]
		if u.Role == "" {
			u.Role = "traveller"
		}
		if err := putUser(ctx, &u); err != nil {
			return res, fmt.Errorf("user %s: %w", u.Email, err)
		}
		res.Users++
	}

	existing, err := catalog.ListCountries(ctx)
	if err != nil {
		return res, err
	}
	countries := lo.KeyBy(existing, func(c *domain.Country) string { return c.ISO })
	// states created in this run, keyed by ISO then name
	states := make(map[string]map[string]string)

	for _, sc := range f.Countries {
		iso := strings.ToUpper(sc.ISO)
		if _, ok := countries[iso]; ok {
			continue
		}
		country, err := catalog.CreateCountry(ctx, &dto.CreateCountryRequest{
			ISO:       iso,
			Name:      sc.Name,
			Flag:      sc.Flag,
			PhoneCode: sc.PhoneCode,
			Currency:  sc.Currency,
		})
		if err != nil {
			return res, fmt.Errorf("country %s: %w", iso, err)
		}
		countries[iso] = country
		res.Countries++

		states[iso] = make(map[string]string, len(sc.States))
		for _, ss := range sc.States {
			state, err := catalog.CreateState(ctx, &dto.CreateStateRequest{
				CountryID: country.ID,
				Name:      ss.Name,
				Latitude:  ss.Latitude,
				Longitude: ss.Longitude,
			})
			if err != nil {
				return res, fmt.Errorf("state %s/%s: %w", iso, ss.Name, err)
			}
			states[iso][ss.Name] = state.ID
			res.States++
		}
	}

	existingCategories, err := catalog.ListCategories(ctx)
	if err != nil {
		return res, err
	}
	categories := lo.KeyBy(existingCategories, func(c *domain.Category) string { return c.Code })
	for i := range f.Categories {
		req := f.Categories[i]
		if _, ok := categories[req.Code]; ok {
			continue
		}
		category, err := catalog.CreateCategory(ctx, &req)
		if err != nil {
			return res, fmt.Errorf("category %s: %w", req.Code, err)
		}
		categories[category.Code] = category
		res.Categories++
	}

	for _, sd := range f.Destinations {
		if len(sd.Translations) == 0 {
			return res, fmt.Errorf("destination in %s/%s has no translations", sd.Country, sd.State)
		}
		label := sd.Translations[0].Name
		slug := sd.Translations[0].Slug
		if slug == "" {
			slug = domain.Slugify(label)
		}
		_, err := catalog.GetDestinationBySlug(ctx, slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrDestinationNotFound) {
			return res, fmt.Errorf("destination %s: %w", label, err)
		}

		stateID, ok := states[strings.ToUpper(sd.Country)][sd.State]
		if !ok {
			return res, fmt.Errorf("destination %s: unknown state %s/%s", label, sd.Country, sd.State)
		}
		category, ok := categories[sd.Category]
		if !ok {
			return res, fmt.Errorf("destination %s: unknown category %s", label, sd.Category)
		}
		price, err := decimal.NewFromString(sd.Price)
		if err != nil {
			return res, fmt.Errorf("destination %s: invalid price %q", label, sd.Price)
		}

		if _, err := catalog.CreateDestination(ctx, &dto.CreateDestinationRequest{
			CategoryID:   category.ID,
			StateID:      stateID,
			Price:        price,
			Translations: sd.Translations,
		}); err != nil {
			return res, fmt.Errorf("destination %s: %w", label, err)
		}
		res.Destinations++
	}

	return res, nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load users and catalog data from a YAML file",
		Long: `Load users and catalog data from a YAML file.

Countries (with their states), categories and destinations already present
are left alone, so the same file can be applied again after editing.

Examples:
  tourctl seed testdata/seed.yaml
  tourctl seed catalog.yaml --env .env.staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := parseSeedFile(raw)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSeed(cmd, cfg, f)
		},
	}
}

func runSeed(cmd *cobra.Command, cfg *config.Config, f *seedFile) error {
	ctx := cmd.Context()
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repository.NewPostgresUserRepository(db)
	catalog := service.NewCatalogService(repository.NewPostgresCatalogRepository(db), db, nil)

	res, err := applySeed(ctx, catalog, users.Upsert, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", res)
	return nil
}
