package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"guardian/models"
	"guardian/pkg/license"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/scans", createScanHandler)
	authGroup.GET("/scans", listScansHandler)
	authGroup.GET("/scans/stats", scanStatsHandler)
	authGroup.GET("/scans/:id", getScanHandler)
	authGroup.DELETE("/scans/:id", deleteScanHandler)
	authGroup.POST("/tasks", createTaskHandler)
	authGroup.GET("/tasks", listTasksHandler)
	authGroup.GET("/tasks/:id", getTaskHandler)
	authGroup.PUT("/tasks/:id/status", updateTaskStatusHandler)
	authGroup.GET("/notifications", listNotificationsHandler)
	authGroup.PUT("/notifications/:id/read", markNotificationReadHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	username := usernameVal.(string)
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password, req.FullName); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	// Generate JWT token. Resolve role name from RoleID (we only store role_id).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// systemFieldsFromTask builds the system-of-record side of a comparison
// from the registered company data on a task.
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

// findTaskByCompany picks the open task whose registered company name is
// closest to the extracted one. Uses the cheap similarity variant as a
// pre-filter; 0.8 floor to avoid linking unrelated tasks.
func findTaskByCompany(name string) *models.Task {
	if name == "" {
		return nil
	}
	var tasks []models.Task
	if err := db.Where("status <> ?", models.TaskStatusCompleted).Limit(200).Find(&tasks).Error; err != nil {
		return nil
	}
	var best *models.Task
	bestScore := 0.0
	for i := range tasks {
		if s := license.QuickSimilarity(name, tasks[i].CustomerName); s > bestScore {
			bestScore = s
			best = &tasks[i]
		}
	}
	if best == nil || bestScore < 0.8 {
		return nil
	}
	return best
}

// createScanHandler runs the full verification pipeline over an uploaded
// certificate photo and persists the outcome.
func createScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image missing"})
		return
	}
	if file.Size > 10*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open upload failed"})
		return
	}
	imageData, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read upload failed"})
		return
	}

	// Resolve the linked task: explicit task_id wins, otherwise we try a
	// fuzzy company-name match after recognition.
	var task *models.Task
	if v := c.PostForm("task_id"); v != "" {
		id, _ := strconv.ParseUint(v, 10, 64)
		if id != 0 {
			var tk models.Task
			if err := db.First(&tk, id).Error; err == nil {
				task = &tk
			}
		}
		if task == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task not found"})
			return
		}
	}

	// System record: explicit JSON beats the task's registered data.
	system := license.Fields{}
	systemGiven := false
	if sd := c.PostForm("system_data"); sd != "" {
		if err := json.Unmarshal([]byte(sd), &system); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid system_data"})
			return
		}
		systemGiven = true
	} else if task != nil {
		system = systemFieldsFromTask(task)
		systemGiven = true
	}

	// Persist the image before processing so a failed scan is reviewable.
	baseDir := uploadBaseDir()
	relPath := filepath.Join("scans", time.Now().Format("20060102T150405")+"_"+file.Filename)
	fullPath := filepath.Join(baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	rec := models.ScanRecord{UserID: user.ID, ImagePath: relPath}
	if task != nil {
		rec.TaskID = &task.ID
	}
	if err := db.Create(&rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}

	report, err := verifier.Verify(c.Request.Context(), imageData, system)
	if err != nil {
		rec.Failed = true
		rec.FailedReason = err.Error()
		db.Save(&rec)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not recognize this document", "scan_id": rec.ID})
		return
	}
	if task == nil {
		if t := findTaskByCompany(report.Extracted[license.KeyCompanyName]); t != nil {
			task = t
			rec.TaskID = &t.ID
			if !systemGiven {
				// re-compare against the matched task's registered data
				cmp := license.Compare(report.Extracted, systemFieldsFromTask(t))
				cmp.Recommendations = license.Recommend(cmp)
				report.Comparison = cmp
			}
		}
	}

	extractedJSON, _ := json.Marshal(report.Extracted)
	comparisonJSON, _ := json.Marshal(report.Comparison)
	rec.RecognizedText = report.Text
	rec.Confidence = report.Confidence
	rec.ExtractedJSON = string(extractedJSON)
	rec.ComparisonJSON = string(comparisonJSON)
	rec.AccuracyScore = report.Comparison.OverallAccuracy
	if err := db.Save(&rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}

	// Task bookkeeping + reviewer notification.
	if task != nil {
		if report.Comparison.OverallAccuracy > 0.9 {
			db.Model(&models.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusCompleted)
		} else if task.Status == models.TaskStatusPending {
			db.Model(&models.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusInProgress)
		}
	}
	if report.Comparison.OverallAccuracy < 0.6 {
		n := models.Notification{
			UserID: user.ID,
			Title:  "扫描结果需要人工复核",
			Body:   license.MsgManualReview,
		}
		db.Create(&n)
	}

	c.JSON(http.StatusOK, gin.H{"scan_id": rec.ID, "result": report})
}

// listScansHandler returns recent scans; admin sees all, user only their own.
func listScansHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.ScanRecord{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if v := c.Query("task_id"); v != "" {
		q = q.Where("task_id = ?", v)
	}
	var scans []models.ScanRecord
	if err := q.Order("id desc").Limit(100).Find(&scans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, scans)
}

func getScanHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var rec models.ScanRecord
	if err := db.First(&rec, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && rec.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func deleteScanHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var rec models.ScanRecord
	if err := db.First(&rec, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && rec.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := db.Delete(&rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scan deleted"})
}

// scanStatsHandler returns total scans and average accuracy over a window of days (default 30).
func scanStatsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	days := 30
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	since := time.Now().AddDate(0, 0, -days)
	q := db.Model(&models.ScanRecord{}).Where("created_at >= ?", since)
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	type avgRow struct{ Avg float64 }
	var row avgRow
	q2 := db.Model(&models.ScanRecord{}).Where("created_at >= ? AND failed = false", since)
	if role != "administrator" {
		q2 = q2.Where("user_id = ?", user.ID)
	}
	if err := q2.Select("coalesce(avg(accuracy_score), 0) as avg").Scan(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_scans": total, "avg_accuracy": row.Avg, "period_days": days})
}

func createTaskHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Title             string `json:"title" binding:"required"`
		CustomerName      string `json:"customer_name" binding:"required"`
		CreditCode        string `json:"credit_code"`
		LegalPerson       string `json:"legal_person"`
		Address           string `json:"address"`
		RegisteredCapital string `json:"registered_capital"`
		DueDate           string `json:"due_date"` // optional ISO8601
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task := models.Task{
		Title:             req.Title,
		Status:            models.TaskStatusPending,
		CustomerName:      req.CustomerName,
		CreditCode:        req.CreditCode,
		LegalPerson:       req.LegalPerson,
		Address:           req.Address,
		RegisteredCapital: req.RegisteredCapital,
		AssigneeID:        &user.ID,
	}
	if req.DueDate != "" {
		if t, err := time.Parse(time.RFC3339, req.DueDate); err == nil {
			task.DueDate = &t
		}
	}
	if err := db.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID})
}

func listTasksHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.Task{})
	if role != "administrator" {
		q = q.Where("assignee_id = ?", user.ID)
	}
	if v := c.Query("status"); v != "" {
		q = q.Where("status = ?", v)
	}
	var tasks []models.Task
	if err := q.Order("id desc").Limit(200).Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func getTaskHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var task models.Task
	if err := db.First(&task, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && (task.AssigneeID == nil || *task.AssigneeID != user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func updateTaskStatusHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	var task models.Task
	if err := db.First(&task, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && (task.AssigneeID == nil || *task.AssigneeID != user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := db.Model(&task).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID, "status": req.Status})
}

func listNotificationsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.Query("unread") == "1" {
		q = q.Where("read = false")
	}
	var items []models.Notification
	if err := q.Order("id desc").Limit(100).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func markNotificationReadHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var n models.Notification
	if err := db.First(&n, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if n.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := db.Model(&n).Update("read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}
