package world

import (
	"context"

	"github.com/sojrpg/server/model"
	"gorm.io/gorm"
)

type seedLocation struct {
	name, slug, description string
}

type seedContinent struct {
	name, slug, description string
	locations               []seedLocation
}

// Starter catalog for fresh installs. Operators replace or extend it by
// editing the tables directly; the catalog never changes at runtime.
var seedContinents = []seedContinent{
	{
		name: "Eryndor", slug: "eryndor",
		description: "The old continent, cradle of the first kingdoms.",
		locations: []seedLocation{
			{"Dunmere", "dunmere", "A fishing town on the grey coast."},
			{"Havenfall", "havenfall", "Walled trade city at the river fork."},
			{"Thornwatch", "thornwatch", "Frontier keep at the edge of the deepwood."},
		},
	},
	{
		name: "Skaldvik", slug: "skaldvik",
		description: "Frozen reaches across the northern strait.",
		locations: []seedLocation{
			{"Jorundheim", "jorundheim", "Longhouses under the auroras."},
			{"Frosthollow", "frosthollow", "A mining camp dug into the glacier."},
		},
	},
}

var seedRaces = []struct {
	name, slug, description string
}{
	{"Human", "human", "Adaptable and ambitious, found everywhere."},
	{"Elf", "elf", "Long-lived keepers of the deepwood."},
	{"Dwarf", "dwarf", "Stoneworkers of the mountain holds."},
	{"Orc", "orc", "Clan-bound wanderers of the steppes."},
}

// Seed loads the starter world catalog if the catalog is empty.
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Continent{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sc := range seedContinents {
			continent := &model.Continent{
				Name:        sc.name,
				Slug:        sc.slug,
				Description: sc.description,
			}
			if err := tx.Create(continent).Error; err != nil {
				return err
			}
			for _, sl := range sc.locations {
				loc := &model.Location{
					ContinentID: continent.ID,
					Name:        sl.name,
					Slug:        sl.slug,
					Description: sl.description,
				}
				if err := tx.Create(loc).Error; err != nil {
					return err
				}
			}
		}
		for _, sr := range seedRaces {
			race := &model.Race{Name: sr.name, Slug: sr.slug, Description: sr.description}
			if err := tx.Create(race).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
