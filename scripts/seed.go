package main

import (
	"context"
	"log"
	"time"

	firebase "firebase.google.com/go"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"lostfound/config"
	"lostfound/db"
	"lostfound/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	ctx := context.Background()
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.Firebase.ProjectID},
		option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	if err != nil {
		log.Fatalf("Failed to initialize Firebase app: %v", err)
	}

	firestoreDB, err := db.NewFirestoreDB(ctx, app)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedUsers(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedItems(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed items: %v", err)
	}

	log.Println("✅ Seeding complete")
}

func seedUsers(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	users := []models.User{
		{
			UID:   "seed-admin",
			Name:  "Campus Admin",
			Email: "admin@campus.example",
			Role:  models.RoleAdmin,
		},
		{
			UID:             "seed-maintainer-library",
			Name:            "Library Desk",
			Email:           "library@campus.example",
			Role:            models.RoleMaintainer,
			Locations:       []string{"library", "reading hall"},
			CollectionPoint: "Library Front Desk",
			OfficeHours:     "9:00 AM – 5:00 PM",
		},
		{
			UID:             "seed-maintainer-valuables",
			Name:            "Valuables Office",
			Email:           "valuables@campus.example",
			Role:            models.RoleMaintainer,
			Categories:      []string{"wallet", "phone", "id card"},
			CollectionPoint: "Security Block B",
			OfficeHours:     "10:00 AM – 4:00 PM",
		},
		{
			UID:   "seed-student",
			Name:  "Sample Student",
			Email: "student@campus.example",
			Role:  models.RoleStudent,
		},
	}

	for i := range users {
		if err := firestoreDB.SetUser(ctx, &users[i]); err != nil {
			return err
		}
		log.Printf("  👤 Seeded user %s (%s)", users[i].Name, users[i].Role)
	}

	return nil
}

func seedItems(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	items := []models.Item{
		{
			ID:               uuid.NewString(),
			Type:             models.ItemTypeLost,
			Title:            "Black Leather Wallet",
			Category:         "Wallet",
			LastSeenLocation: "Cafeteria",
			LostDate:         time.Now().Format("2006-01-02"),
			SecretProof:      "has a torn corner sticker inside",
			Status:           models.ItemStatusOpen,
			ReportedBy:       "seed-student",
			ReporterEmail:    "student@campus.example",
			Assignee: models.Assignee{
				AssignedMaintainerUid:  "seed-maintainer-valuables",
				AssignedMaintainerName: "Valuables Office",
				CollectionPoint:        "Security Block B",
				OfficeHours:            "10:00 AM – 4:00 PM",
			},
			CreatedAt: time.Now(),
		},
		{
			ID:            uuid.NewString(),
			Type:          models.ItemTypeFound,
			Title:         "Blue Water Bottle",
			Category:      "Water Bottle",
			FoundLocation: "Library",
			FoundDate:     time.Now().Format("2006-01-02"),
			Status:        models.ItemStatusOpen,
			ReportedBy:    "seed-student",
			ReporterEmail: "student@campus.example",
			Assignee: models.Assignee{
				AssignedMaintainerUid:  "seed-maintainer-library",
				AssignedMaintainerName: "Library Desk",
				CollectionPoint:        "Library Front Desk",
				OfficeHours:            "9:00 AM – 5:00 PM",
			},
			CreatedAt: time.Now(),
		},
	}

	for i := range items {
		if err := firestoreDB.CreateItem(ctx, &items[i]); err != nil {
			return err
		}
		log.Printf("  📦 Seeded %s item %q", items[i].Type, items[i].Title)
	}

	return nil
}
