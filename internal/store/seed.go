package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tineghir-cms/internal/auth"
	"tineghir-cms/internal/model"
)

// defaultContent is the page content seeded on first boot.
var defaultContent = map[string]string{
	"hero_title":        "Tineghir",
	"hero_subtitle":     "Gateway to the Majestic Todra Gorge",
	"about_description": "Nestled at the foot of the High Atlas Mountains, Tineghir is an enchanting oasis city that has captivated travelers for centuries. This ancient Berber settlement sits along the legendary Route of a Thousand Kasbahs, offering a window into Morocco's rich cultural heritage.",
	"footer_text":       "Discover the magic of Southern Morocco. Where ancient traditions meet breathtaking natural beauty.",
}

// defaultAttractions is the sample attraction set seeded on first boot.
var defaultAttractions = []CreateAttractionParams{
	{Title: "Todra Gorge", Description: "A spectacular canyon with 300-meter high walls, perfect for hiking, rock climbing, and photography.", Image: "images/todra-gorge.jpg", Tag: "Featured"},
	{Title: "Palm Groves", Description: "Lush green oasis stretching 25km along the Todra River, home to traditional Berber villages.", Image: "images/tineghir-palm-grove.jpg", Tag: "Discover"},
	{Title: "Ancient Kasbahs", Description: "Explore centuries-old fortified villages built from red clay, showcasing traditional Berber architecture.", Image: "images/ait-benhaddou.jpg", Tag: "Visit"},
	{Title: "Berber Markets", Description: "Vibrant souks filled with handwoven carpets, silver jewelry, spices, and traditional crafts.", Image: "", Tag: "Shop"},
	{Title: "Desert Excursions", Description: "Camel treks, 4x4 adventures, and overnight camping under the Saharan stars.", Image: "images/merzouga-dunes.jpg", Tag: "Adventure"},
	{Title: "Local Cuisine", Description: "Savor traditional tagines, couscous, mint tea, and fresh dates from the palm groves.", Image: "images/moroccan-tagine.jpg", Tag: "Taste"},
}

// SeedParams configures the initial administrator account.
type SeedParams struct {
	AdminEmail    string
	AdminPassword string
}

// Seed populates empty tables with default data. Each table is checked
// independently so a second boot against the same store seeds nothing
// further.
func Seed(ctx context.Context, db *sql.DB, params SeedParams) error {
	queries := New(db)

	contentCount, err := queries.CountContent(ctx)
	if err != nil {
		return fmt.Errorf("counting content: %w", err)
	}
	if contentCount == 0 {
		if err := BulkUpsertContent(ctx, db, defaultContent); err != nil {
			return fmt.Errorf("seeding content: %w", err)
		}
		slog.Info("seeded default content", "keys", len(defaultContent))
	}

	attractionCount, err := queries.CountAttractions(ctx)
	if err != nil {
		return fmt.Errorf("counting attractions: %w", err)
	}
	if attractionCount == 0 {
		for _, a := range defaultAttractions {
			if _, err := queries.CreateAttraction(ctx, a); err != nil {
				return fmt.Errorf("seeding attraction %q: %w", a.Title, err)
			}
		}
		slog.Info("seeded default attractions", "count", len(defaultAttractions))
	}

	userCount, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if userCount == 0 {
		passwordHash, err := auth.HashPassword(params.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		id, err := queries.CreateUser(ctx, CreateUserParams{
			Name:         "Admin User",
			Email:        params.AdminEmail,
			PasswordHash: passwordHash,
			Role:         model.RoleAdministrator,
			Status:       model.StatusActive,
		})
		if err != nil {
			return fmt.Errorf("seeding admin user: %w", err)
		}
		slog.Info("created default admin user", "id", id, "email", params.AdminEmail)
	}

	return nil
}
