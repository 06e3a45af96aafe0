package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/bloomup/internal/constants"
	"github.com/julianstephens/bloomup/internal/logger"
	"github.com/julianstephens/bloomup/internal/models"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
	sleepFunc         = time.Sleep
)

var ErrTrayNotRunning = errors.New(constants.TrayAppExecutable + " is not running")

// Sender delivers a desktop notification.
type Sender interface {
	Notify(text string) error
}

type Notifier struct {
	client *http.Client
}

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

func New() *Notifier {
	return &Notifier{client: &http.Client{Timeout: 2 * time.Second}}
}

// Notify sends text to the tray app. Transient delivery failures are retried;
// a missing tray is reported immediately.
func (n *Notifier) Notify(text string) error {
	trayAppConfigPath, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(trayAppConfigPath, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDurationMs,
	}

	for attempt := 1; ; attempt++ {
		err = n.sendNotification(port, secret, payload)
		if err == nil || attempt >= constants.NotifyMaxRetries {
			return err
		}
		logger.Debug("Retrying tray notification", "attempt", attempt, "error", err)
		sleepFunc(constants.NotifyRetryDelay)
	}
}

// PhaseMessage is the notification shown when the timer leaves phase.
// It returns "" for transitions that need no alert.
func PhaseMessage(task string, from, to models.Phase, allDone bool) string {
	switch {
	case allDone:
		return "All tasks for today are complete 🌱"
	case from == models.PhaseWork && to == models.PhaseShortBreak:
		return fmt.Sprintf("Pomodoro finished for %s. Take a short break.", task)
	case from == models.PhaseShortBreak && to == models.PhaseLongBreak:
		return "Short break over. Time for a long break."
	case from != models.PhaseWork && to == models.PhaseWork:
		return fmt.Sprintf("Break over. Back to %s.", task)
	}
	return ""
}

// TrayRunning returns nil when the tray app's lockfile points at a live process.
func TrayRunning() error {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}
	_, _, err = findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
	return err
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// Check for settings.json to see if a custom lockfile dir is set
	settingsPath := filepath.Join(trayConfigDir, "settings.json")
	if data, err := os.ReadFile(settingsPath); err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &store); err == nil {
			if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
				return *store.Settings.LockfileDir, nil
			}
		}
	}

	return trayConfigDir, nil
}

// lockfile format: port|pid|secret
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}

	if !strings.HasPrefix(process.Executable(), constants.TrayAppExecutable) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayAppExecutable, process.Executable())
	}

	return port, secret, nil
}

func (n *Notifier) sendNotification(port string, secret string, payload WebhookPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
