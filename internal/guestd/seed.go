package guestd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rayarayu/checkin/internal/kiosk"
)

// Seed is the YAML guest list loaded into an empty directory.
//
//	operators:
//	  - username: usher1
//	    password: secret
//	    role: usher
//	invitations:
//	  - slug: a1b2c3
//	    name: Jane Doe
//	    qty: 2
type Seed struct {
	Operators []struct {
		Username string     `yaml:"username"`
		Password string     `yaml:"password"`
		Role     kiosk.Role `yaml:"role"`
	} `yaml:"operators"`
	Invitations []struct {
		Slug string `yaml:"slug"`
		Name string `yaml:"name"`
		Qty  int    `yaml:"qty"`
	} `yaml:"invitations"`
}

func DecodeSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return Seed{}, fmt.Errorf("decoding seed: %w", err)
	}
	return seed, nil
}

func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// Apply creates missing operators and, when the directory holds no
// invitations yet, the whole guest list. Running it twice is harmless.
func (s *Store) Apply(ctx context.Context, logger *slog.Logger, seed Seed) error {
	for _, op := range seed.Operators {
		if err := s.EnsureOperator(ctx, op.Username, op.Password, op.Role); err != nil {
			return err
		}
	}

	n, err := s.CountInvitations(ctx)
	if err != nil {
		return fmt.Errorf("counting invitations: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, inv := range seed.Invitations {
		if _, err := s.AddInvitation(ctx, inv.Slug, inv.Name, inv.Qty); err != nil {
			return fmt.Errorf("seeding %q: %w", inv.Name, err)
		}
	}
	logger.Info("guest list seeded", "invitations", len(seed.Invitations))
	return nil
}

// EnsureOperator creates the operator unless the username is taken.
func (s *Store) EnsureOperator(ctx context.Context, username, password string, role kiosk.Role) error {
	_, err := s.CreateOperator(ctx, username, password, role)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}
