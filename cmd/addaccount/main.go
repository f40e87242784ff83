package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"drop_harvester/internal/browser"
	"drop_harvester/internal/config"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/platform"
	"drop_harvester/internal/store"
	"drop_harvester/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config.yaml")
	username := flag.String("username", "", "account username")
	password := flag.String("password", "", "account password")
	phone := flag.String("phone", "", "owner phone number for notifications")
	admin := flag.Bool("admin", false, "mark the account owner as an admin")
	verify := flag.Bool("verify", true, "log in once to verify and capture the session")
	dryRun := flag.Bool("dry-run", false, "verify the credentials without storing anything")
	remove := flag.Bool("delete", false, "delete the account instead of adding it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	st, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer st.Close()

	reader := bufio.NewReader(os.Stdin)
	name := strings.TrimSpace(*username)
	if name == "" {
		name = prompt(reader, "username: ")
	}
	if name == "" {
		log.Fatal("a username is required")
	}

	if *remove {
		if err := st.Delete(ctx, name); err != nil {
			log.Fatalf("delete account: %v", err)
		}
		fmt.Printf("deleted %s\n", name)
		return
	}

	acc, err := st.Load(ctx, name)
	switch {
	case err == nil:
		fmt.Printf("updating existing account %s\n", name)
	case errors.Is(err, store.ErrNotFound):
		acc = &model.Account{Username: name, CreatedAt: time.Now()}
	default:
		log.Fatalf("load account: %v", err)
	}

	pass := strings.TrimSpace(*password)
	if pass == "" && !acc.LoggedIn() {
		pass = prompt(reader, "password: ")
	}
	if pass != "" {
		// A new password invalidates whatever session was saved.
		acc.Lock()
		acc.Password = pass
		acc.Cookies = nil
		acc.Unlock()
	}
	if p := strings.TrimSpace(*phone); p != "" {
		if !plausiblePhone(p) {
			log.Fatalf("phone %q does not look like an E.164 number", p)
		}
		acc.Phone = p
	}
	acc.Admin = *admin
	acc.UpdatedAt = time.Now()
	acc.Ephemeral = *dryRun

	if !*verify && !*dryRun {
		if err := st.Save(ctx, acc); err != nil {
			log.Fatalf("save account: %v", err)
		}
		fmt.Printf("saved %s without verification\n", name)
		return
	}

	bus := logbus.New(64)
	logs, cancelLogs := bus.Subscribe(64)
	defer cancelLogs()
	go func() {
		for msg := range logs {
			if data, ok := msg.Data.(logbus.LogData); ok {
				fmt.Printf("[%s] %s\n", data.Level, data.Msg)
			}
		}
	}()

	// Ephemeral accounts make this a no-op, so a dry run leaves no trace.
	if err := st.Save(ctx, acc); err != nil {
		log.Fatalf("save account: %v", err)
	}

	drivers := func(headless bool) (platform.Driver, error) {
		return browser.New(browser.Options{
			Headless:    cfg.Browser.Headless,
			UserAgent:   cfg.Browser.UserAgent,
			FindTimeout: cfg.Browser.FindTimeout(),
		}, headless)
	}
	factory := platform.NewFactory(platform.FactoryOptions{
		Platform: cfg.Platform,
		Harvest:  cfg.Harvest,
		Limits:   cfg.Limits,
		Pace:     cfg.Pace,
		Headless: cfg.Browser.Headless,
		Drivers:  drivers,
		Store:    st,
		Bus:      bus,
	})

	fmt.Println("verifying login, resolve any challenges in the browser window")
	if err := factory.Authenticate(ctx, acc); err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	if *dryRun {
		fmt.Printf("verified %s, nothing stored\n", name)
		return
	}
	fmt.Printf("verified %s, session saved\n", name)
}

// plausiblePhone is a sanity check, not a validator: a plus, then digits.
func plausiblePhone(p string) bool {
	if !strings.HasPrefix(p, "+") || len(p) < 8 {
		return false
	}
	for _, r := range p[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
