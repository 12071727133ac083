package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"quizsite-service/internal/seed"
)

// SeedResult counts rows the seeder actually inserted.
type SeedResult struct {
	Categories int
	Questions  int
}

// Seeder loads a catalog into Postgres. Existing categories and questions are kept as-is,
// so seeding twice is a no-op.
type Seeder struct {
	db  *bun.DB
	log *zap.Logger
}

func NewSeeder(db *bun.DB, log *zap.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

func (s *Seeder) Seed(ctx context.Context, catalog seed.Catalog) (SeedResult, error) {
	var result SeedResult
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, cs := range catalog.Categories {
			categoryID, inserted, err := upsertCategory(ctx, tx, cs)
			if err != nil {
				return err
			}
			if inserted {
				result.Categories++
			}
			for _, qs := range cs.Questions {
				m := newQuestionModel(qs.Question(categoryID, cs.Name))
				res, err := tx.NewInsert().Model(&m).
					ExcludeColumn("created_at", "updated_at").
					On("CONFLICT (category_id, question_text) DO NOTHING").
					Returning("NULL").
					Exec(ctx)
				if err != nil {
					return fmt.Errorf("insert question %q: %w", qs.Text, err)
				}
				if n, _ := res.RowsAffected(); n > 0 {
					result.Questions++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, translate(err)
	}
	s.log.Info("catalog seeded",
		zap.Int("categories_inserted", result.Categories),
		zap.Int("questions_inserted", result.Questions),
	)
	return result, nil
}

func upsertCategory(ctx context.Context, tx bun.Tx, cs seed.CategorySeed) (int64, bool, error) {
	c := cs.Category()
	m := categoryModel{Name: c.Name, Description: c.Description, Icon: c.Icon, ColorClass: c.ColorClass}
	res, err := tx.NewInsert().Model(&m).
		ExcludeColumn("created_at").
		On("CONFLICT (name) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	n, _ := res.RowsAffected()

	var id int64
	err = tx.NewSelect().Model((*categoryModel)(nil)).
		Column("id").
		Where("name = ?", c.Name).
		Scan(ctx, &id)
	if err != nil {
		return 0, false, fmt.Errorf("select category %q: %w", c.Name, err)
	}
	return id, n > 0, nil
}
