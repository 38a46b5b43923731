// watch_inbox scans a directory of certificate photos, runs the
// verification pipeline on each and stores ScanRecords. With -watch it
// keeps running and picks up new files via fsnotify (debounced so
// half-written files are not processed).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"guardian/models"
	"guardian/pkg/license"
)

var db *gorm.DB

var verbose bool

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

func main() {
	dirFlag := flag.String("dir", "inbox", "directory to scan for certificate photos")
	userID := flag.Uint("user-id", 0, "user ID to own created scan records (default: admin)")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	db = mustInitDBFromEnv()

	owner := resolveOwner(*userID)
	engine := license.NewEngine()
	defer func() {
		if err := engine.Terminate(); err != nil {
			log.Printf("engine terminate: %v", err)
		}
	}()
	verifier := license.NewVerifier(engine)

	files := listImageFiles(*dirFlag)
	log.Printf("Found %d candidate files in %s", len(files), *dirFlag)
	for _, name := range files {
		processFile(verifier, owner, *dirFlag, name)
	}

	if *watch {
		if err := watchDir(verifier, owner, *dirFlag); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func resolveOwner(userID uint) uint {
	if userID != 0 {
		var u models.User
		if err := db.First(&u, userID).Error; err != nil {
			log.Fatalf("user %d not found: %v", userID, err)
		}
		return u.ID
	}
	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		log.Fatalf("no -user-id given and admin user not found: %v", err)
	}
	return admin.ID
}

func isSupportedExt(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("read dir %s: %v", dir, err)
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	return out
}

// processFile runs one photo through the pipeline and stores the outcome.
// Already-recorded files (same image path) are skipped so re-runs are cheap.
func processFile(verifier *license.Verifier, owner uint, dir, name string) {
	fullPath := filepath.Join(dir, name)
	var existing models.ScanRecord
	if err := db.Where("image_path = ?", fullPath).First(&existing).Error; err == nil {
		if verbose {
			log.Printf("skip %s: already recorded (scan %d)", name, existing.ID)
		}
		return
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		log.Printf("read %s: %v", name, err)
		return
	}

	rec := models.ScanRecord{UserID: owner, ImagePath: fullPath}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	report, err := verifier.Verify(ctx, data, license.Fields{})
	cancel()
	if err != nil {
		rec.Failed = true
		rec.FailedReason = err.Error()
		if err := db.Create(&rec).Error; err != nil {
			log.Printf("save failed scan for %s: %v", name, err)
		}
		log.Printf("%s: recognition failed: %v", name, err)
		return
	}

	// Link the closest open task and redo the comparison against its
	// registered data when one is found.
	if t := matchTask(report.Extracted[license.KeyCompanyName]); t != nil {
		rec.TaskID = &t.ID
		cmp := license.Compare(report.Extracted, systemFieldsFromTask(t))
		cmp.Recommendations = license.Recommend(cmp)
		report.Comparison = cmp
	}

	extractedJSON, _ := json.Marshal(report.Extracted)
	comparisonJSON, _ := json.Marshal(report.Comparison)
	rec.RecognizedText = report.Text
	rec.Confidence = report.Confidence
	rec.ExtractedJSON = string(extractedJSON)
	rec.ComparisonJSON = string(comparisonJSON)
	rec.AccuracyScore = report.Comparison.OverallAccuracy
	if err := db.Create(&rec).Error; err != nil {
		log.Printf("save scan for %s: %v", name, err)
		return
	}
	if verbose {
		log.Printf("%s: scan %d accuracy=%.2f fields=%d", name, rec.ID, rec.AccuracyScore, len(report.Extracted))
	}
}

func matchTask(company string) *models.Task {
	if company == "" {
		return nil
	}
	var tasks []models.Task
	if err := db.Where("status <> ?", models.TaskStatusCompleted).Limit(200).Find(&tasks).Error; err != nil {
		return nil
	}
	var best *models.Task
	bestScore := 0.0
	for i := range tasks {
		if s := license.QuickSimilarity(company, tasks[i].CustomerName); s > bestScore {
			bestScore = s
			best = &tasks[i]
		}
	}
	if best == nil || bestScore < 0.8 {
		return nil
	}
	return best
}

func systemFieldsFromTask(t *models.Task) license.Fields {
	f := license.Fields{}
	if t.CustomerName != "" {
		f[license.KeyCompanyName] = t.CustomerName
	}
	if t.CreditCode != "" {
		f[license.KeyCreditCode] = t.CreditCode
	}
	if t.LegalPerson != "" {
		f[license.KeyLegalPerson] = t.LegalPerson
	}
	if t.Address != "" {
		f[license.KeyAddress] = t.Address
	}
	if t.RegisteredCapital != "" {
		f[license.KeyRegisteredCapital] = t.RegisteredCapital
	}
	return f
}

// watchDir blocks, processing files as they appear. Create events are
// debounced until the file has been stable for a few hundred ms.
func watchDir(verifier *license.Verifier, owner uint, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		var mu sync.Mutex
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create || ev.Op&fsnotify.Write == fsnotify.Write {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					mu.Lock()
					pending[name] = time.Now()
					mu.Unlock()
				}
			case <-ticker.C:
				now := time.Now()
				mu.Lock()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	for name := range fileCh {
		processFile(verifier, owner, dir, name)
	}
	return nil
}
