package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"outreach-console/internal/backend"
	"outreach-console/internal/config"
	"outreach-console/internal/domain"
	"outreach-console/internal/guard"
	"outreach-console/internal/service"
	"outreach-console/internal/session"
	"outreach-console/internal/storage"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	store, closeStorage, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStorage()

	client := backend.NewHTTPClient(cfg.APIBaseURL, cfg.APITimeout, logger)
	sess := session.NewStore(logger, store, client, session.NavigatorFunc(printRedirect), session.Options{DraftKeys: cfg.DraftKeys})
	if _, err := sess.Hydrate(ctx); err != nil {
		logger.Warn("session hydrate failed", zap.Error(err))
	}

	routeGuard := guard.New(sess, guard.StorageSignal(store))
	authSvc := service.NewAuthService(logger, client, sess, service.NewLoginLimiter(cfg.LoginWindow, cfg.LoginAttempts))
	accountSvc := service.NewAccountService(logger, client, sess)

	for {
		fmt.Printf("\n===== Outreach Console (%s) =====\n", sess.Snapshot().State)
		fmt.Println("[1] Login")
		fmt.Println("[2] Crear cuenta")
		fmt.Println("[3] Dashboard")
		fmt.Println("[4] Panel admin")
		fmt.Println("[5] Sincronizar usuario")
		fmt.Println("[6] Completar onboarding")
		fmt.Println("[7] Logout")
		fmt.Println("[8] Salir")
		fmt.Print("Selecciona una opcion: ")

		line, _ := reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			email := prompt(reader, "Email: ")
			password := prompt(reader, "Password: ")
			user, err := authSvc.Login(ctx, email, password)
			if err != nil {
				printAuthError(err)
				continue
			}
			fmt.Printf("Bienvenido, %s.\n", displayName(user))
		case "2":
			name := prompt(reader, "Nombre: ")
			email := prompt(reader, "Email: ")
			password := prompt(reader, "Password (min 8): ")
			user, err := authSvc.Signup(ctx, name, email, password)
			if err != nil {
				printAuthError(err)
				continue
			}
			fmt.Printf("Cuenta creada para %s.\n", displayName(user))
		case "3":
			if !allowed(ctx, routeGuard, session.LandingPath, false) {
				continue
			}
			user, _ := sess.User()
			printDashboard(user)
		case "4":
			if !allowed(ctx, routeGuard, "/admin", true) {
				continue
			}
			fmt.Println("Panel admin: acceso concedido.")
		case "5":
			fmt.Printf("Sync: %s\n", sess.SyncUser(ctx))
		case "6":
			if !allowed(ctx, routeGuard, "/onboarding", false) {
				continue
			}
			var credits *int
			if raw := prompt(reader, "Creditos (vacio = los del servidor): "); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil {
					fmt.Println("Valor invalido.")
					continue
				}
				credits = &n
			}
			user, err := accountSvc.CompleteOnboarding(ctx, credits)
			if err != nil {
				fmt.Printf("Error en onboarding: %v\n", err)
				continue
			}
			fmt.Printf("Onboarding completo. Creditos: %d\n", user.Credits)
		case "7":
			authSvc.Logout(ctx)
			fmt.Println("Sesion cerrada.")
		case "8":
			return
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

// allowed evalúa el guard para una vista y muestra el motivo si no se puede renderizar.
func allowed(ctx context.Context, g *guard.Guard, path string, adminOnly bool) bool {
	d := g.Evaluate(ctx, guard.Request{Path: path, AdminOnly: adminOnly})
	switch d.Outcome {
	case guard.OutcomeRender:
		return true
	case guard.OutcomeLoading:
		fmt.Println("Cargando sesion, intenta de nuevo.")
	case guard.OutcomeRedirect:
		printRedirect(d.Target, d.Notice)
	}
	return false
}

func printRedirect(path string, notice *domain.BlockedNotice) {
	if notice != nil && notice.IsBlocked {
		fmt.Println("!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!")
		fmt.Println(notice.Message)
		fmt.Println(notice.Reason)
		fmt.Println("!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!")
	}
	fmt.Printf("-> %s\n", path)
}

func printAuthError(err error) {
	var blocked *service.BlockedError
	switch {
	case errors.As(err, &blocked):
		printRedirect(session.LoginPath, &blocked.Notice)
	case errors.Is(err, service.ErrInvalidCredentials):
		fmt.Println("Credenciales invalidas.")
	case errors.Is(err, service.ErrRateLimited):
		fmt.Println("Demasiados intentos, espera unos minutos.")
	default:
		fmt.Printf("Error: %v\n", err)
	}
}

func printDashboard(user domain.User) {
	fmt.Printf("--- Dashboard de %s ---\n", displayName(user))
	fmt.Printf("Plan: %s (%s)\n", user.Plan, user.BillingCycle)
	fmt.Printf("Creditos: %d\n", user.Credits)
	fmt.Printf("Onboarding completo: %v\n", user.HasCompletedOnboarding)
}

func displayName(user domain.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
