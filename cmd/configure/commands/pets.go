package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benvon/pet-shop/internal/backend"
	"github.com/benvon/pet-shop/internal/database"
	"github.com/benvon/pet-shop/internal/models"
	"github.com/benvon/pet-shop/internal/validation"
)

// seedFile is the layout of a pets seed document.
type seedFile struct {
	Pets []models.Pet `yaml:"pets"`
}

// NewPetsCmd creates the pets command.
func NewPetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pets",
		Short: "Manage pet listings",
	}
	cmd.AddCommand(newPetsSeedCmd())
	return cmd
}

func newPetsSeedCmd() *cobra.Command {
	var file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load pet listings from a YAML file",
		Long:  "Validate and insert the listings under the top-level 'pets' key of a YAML file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer func() { _ = f.Close() }()

			pets, err := parseSeed(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d pets are valid.\n", len(pets))
				return nil
			}

			return withBackends(cmd, func(ctx context.Context, b *backend.Backends) error {
				n, err := seedPets(ctx, database.NewPetRepository(b.Store), pets, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d pets.\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a top-level 'pets' list (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	return cmd
}

// parseSeed decodes and validates every listing, reporting the first invalid entry.
func parseSeed(r io.Reader) ([]models.Pet, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(doc.Pets) == 0 {
		return nil, fmt.Errorf("seed file has no pets")
	}
	for i := range doc.Pets {
		p := &doc.Pets[i]
		p.Name = validation.SanitizeText(p.Name)
		p.Description = validation.SanitizeText(p.Description)
		if err := validation.Validate.Struct(p); err != nil {
			return nil, fmt.Errorf("pet %d (%q): %s", i+1, p.Name, validation.Message(err))
		}
	}
	return doc.Pets, nil
}

// seedPets inserts pets so the first entry of the file lists first (newest).
func seedPets(ctx context.Context, repo database.PetRepositoryInterface, pets []models.Pet, now time.Time) (int, error) {
	for i := range pets {
		p := pets[i]
		p.ID = ""
		p.CreatedAt = now.Add(-time.Duration(i) * time.Second).UTC()
		if err := repo.Create(ctx, &p); err != nil {
			return i, fmt.Errorf("create pet %q: %w", p.Name, err)
		}
	}
	return len(pets), nil
}
