package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedTags = []string{
	"#fitness", "#travel", "#music", "#cooking", "#hiking",
	"#gaming", "#photography", "#books", "#movies", "#yoga",
}

// Paris-ish seed coordinates, jittered per user.
const (
	seedLat = 48.8566
	seedLon = 2.3522
)

// SeedTestData resets the database and populates it with demo users,
// profiles, tags, photos and like edges (including mutual matches).
//
// Behavior:
//  1. Clears all tables.
//  2. Creates 20 users (10 male, 10 female) with completed profiles,
//     coordinates near the seed point and 2-4 tags each.
//  3. Generates likes with ~35% density across the pairs; every
//     3rd like is reciprocated, producing matches with consistent
//     counters.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"messages", "notifications", "reports", "blocked_users",
		"matches", "likes", "photos", "user_tags", "tags",
		"profiles", "users",
	}
	for _, t := range tables {
		if err := database.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}
	switch database.Dialector.Name() {
	case "mysql":
		for _, t := range tables {
			database.Exec("ALTER TABLE " + t + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// tags
	tagIDs := make([]uint64, 0, len(seedTags))
	for _, name := range seedTags {
		tag := Tag{Name: name}
		if err := database.Create(&tag).Error; err != nil {
			return fmt.Errorf("failed to seed tag %s: %w", name, err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	// users + profiles + photos + tags
	for i := 1; i <= 20; i++ {
		gender := GenderMale
		if i > 10 {
			gender = GenderFemale
		}
		pref := PrefHeterosexual
		if i%5 == 0 {
			pref = PrefBisexual
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Verified:     true,
			LastLoginAt:  time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour),
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %d: %w", i, err)
		}

		lat := seedLat + (r.Float64()-0.5)*0.8
		lon := seedLon + (r.Float64()-0.5)*0.8
		birth := time.Date(1985+r.Intn(20), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC)
		profile := Profile{
			UserID:           user.ID,
			Gender:           gender,
			SexualPreference: pref,
			Bio:              fmt.Sprintf("Hi, I am user%d.", i),
			BirthDate:        &birth,
			Latitude:         &lat,
			Longitude:        &lon,
			LastLocation:     "Paris",
		}
		if err := database.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile %d: %w", i, err)
		}

		photo := Photo{
			UserID:    user.ID,
			Path:      fmt.Sprintf("photos/%d/main.jpg", user.ID),
			IsProfile: true,
		}
		if err := database.Create(&photo).Error; err != nil {
			return fmt.Errorf("failed to seed photo %d: %w", i, err)
		}

		for _, idx := range r.Perm(len(tagIDs))[:2+r.Intn(3)] {
			if err := database.Create(&UserTag{UserID: user.ID, TagID: tagIDs[idx]}).Error; err != nil {
				return fmt.Errorf("failed to seed user tag: %w", err)
			}
		}
	}

	var users []User
	if err := database.Order("id").Find(&users).Error; err != nil {
		return err
	}

	// likes and matches
	likeCount := make(map[uint64]int64)
	matchCount := make(map[uint64]int64)
	liked := make(map[[2]uint64]bool)
	n := 0
	for _, a := range users {
		for _, b := range users {
			if a.ID == b.ID || r.Float64() > 0.35 {
				continue
			}
			if liked[[2]uint64{a.ID, b.ID}] {
				continue
			}
			if err := database.Create(&Like{LikerID: a.ID, LikedID: b.ID}).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			liked[[2]uint64{a.ID, b.ID}] = true
			likeCount[b.ID]++
			n++

			// every 3rd like is reciprocated
			if n%3 == 0 && !liked[[2]uint64{b.ID, a.ID}] {
				if err := database.Create(&Like{LikerID: b.ID, LikedID: a.ID}).Error; err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
				liked[[2]uint64{b.ID, a.ID}] = true
				likeCount[a.ID]++

				u1, u2 := a.ID, b.ID
				if u1 > u2 {
					u1, u2 = u2, u1
				}
				if err := database.Create(&Match{User1ID: u1, User2ID: u2}).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
				matchCount[a.ID]++
				matchCount[b.ID]++
			}
		}
	}

	for _, u := range users {
		err := database.Model(&Profile{}).
			Where("user_id = ?", u.ID).
			Updates(map[string]interface{}{
				"likes_count":   likeCount[u.ID],
				"matches_count": matchCount[u.ID],
				"views_count":   int64(rand.Intn(150)),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to seed counters: %w", err)
		}
	}

	log.Printf("Seeded %d users, %d likes", len(users), n)
	return nil
}
