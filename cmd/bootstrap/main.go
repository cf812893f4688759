// One-time admin bootstrap for pilot deployments: ensures a default
// organization, a superadmin user and the org_admin membership.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/platform/auth"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/config"
	"sponsorops/internal/platform/database"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	email := flag.String("email", os.Getenv("SPONSOR_OPS_BOOTSTRAP_EMAIL"), "Admin email")
	password := flag.String("password", os.Getenv("SPONSOR_OPS_BOOTSTRAP_PASSWORD"), "Admin password")
	orgName := flag.String("org", "Default Org", "Name for the default organization")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or SPONSOR_OPS_BOOTSTRAP_EMAIL / SPONSOR_OPS_BOOTSTRAP_PASSWORD)")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	orgRepo := repositories.NewOrganizationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	authzSvc := authz.NewService(membershipRepo)

	orgs, err := orgRepo.List()
	if err != nil {
		log.Fatalf("Failed to list organizations: %v", err)
	}
	var org *models.Organization
	if len(orgs) > 0 {
		org = orgs[0]
	} else {
		org = &models.Organization{
			ID:        "org_" + uuid.NewString(),
			Name:      *orgName,
			CreatedAt: time.Now().Unix(),
		}
		if err := orgRepo.Create(org); err != nil {
			log.Fatalf("Failed to create organization: %v", err)
		}
	}

	user, err := userRepo.GetByEmail(*email)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		user = &models.User{
			ID:           "usr_" + uuid.NewString(),
			Email:        *email,
			PasswordHash: hash,
			Rank:         authz.RankSuperadmin,
			CreatedAt:    time.Now().Unix(),
		}
		if err := userRepo.Create(user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
	}

	if _, err := authzSvc.EnsureMembership(org.ID, user.ID, authz.RoleOrgAdmin); err != nil {
		log.Fatalf("Failed to ensure membership: %v", err)
	}

	log.Printf("Bootstrapped admin user %s in organization %s", user.Email, org.Name)
}
