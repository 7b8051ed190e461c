package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mkredacao/portal-client/internal/api"
	"github.com/mkredacao/portal-client/internal/model"
	"github.com/mkredacao/portal-client/internal/session"
	"github.com/mkredacao/portal-client/internal/validator"
)

// roleFromFlag maps the CLI role names (Portuguese, like the pages) to
// canonical roles.
func roleFromFlag(raw string) (model.Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aluno", "student", "":
		return model.RoleStudent, nil
	case "professor", "teacher":
		return model.RoleProfessor, nil
	case "escola", "school":
		return model.RoleSchool, nil
	default:
		return "", fmt.Errorf("role inválido: %q (use aluno, professor ou escola)", raw)
	}
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	roleFlag := fs.String("role", "aluno", "aluno, professor ou escola")
	emailFlag := fs.String("email", "", "e-mail da conta")
	fs.Parse(args)

	role, err := roleFromFlag(*roleFlag)
	if err != nil {
		return err
	}

	a := newApp(loginPageFor(role))

	// Mirror of the login pages' just-logged-out guard: consume the marker
	// so an old logout can never suppress a future expiry notice.
	if session.ConsumeJustLoggedOut(a.ctx, a.st) {
		fmt.Println("Você saiu da conta. Entre novamente.")
	}

	email := strings.ToLower(strings.TrimSpace(*emailFlag))
	if email == "" {
		email = prompt("E-mail: ")
	}

	password, err := promptPassword("Senha: ")
	if err != nil {
		return err
	}

	req := api.LoginRequest{Email: email, Password: password}
	if err := validator.Struct(req); err != nil {
		for field, msg := range validator.TranslateErrors(err) {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
		}
		return fmt.Errorf("dados de login inválidos")
	}

	res, err := a.client.Login(a.ctx, req)
	if err != nil {
		return err
	}

	// The pages refuse to store a session of the wrong kind — a professor
	// logging in through the student page, say.
	if got := res.User.NormalizedRole(); got != role {
		return fmt.Errorf("esta conta é %s; use `portalctl login -role %s`", roleLabel(got), roleFlagName(got))
	}

	if err := session.StoreLogin(a.ctx, a.st, res.Token, res.User); err != nil {
		return err
	}

	fmt.Printf("Login efetuado como %s (%s).\n", res.User.Name, roleLabel(role))

	if res.User.ForcedPasswordChange() {
		fmt.Println("Sua escola exige uma nova senha: rode `portalctl password first`.")
	}
	return nil
}

func runLogout() error {
	a := newApp("logout")
	if err := session.Logout(a.ctx, a.st); err != nil {
		return err
	}
	fmt.Println("Sessão encerrada.")
	return nil
}

func runWhoami() error {
	a := newApp("whoami")

	user := session.User(a.ctx, a.st)
	token := session.Token(a.ctx, a.st)
	if user == nil || token == "" {
		fmt.Println("Nenhuma sessão ativa.")
		return nil
	}

	fmt.Printf("Nome:   %s\n", user.Name)
	fmt.Printf("E-mail: %s\n", user.Email)
	fmt.Printf("Perfil: %s\n", roleLabel(user.NormalizedRole()))
	fmt.Printf("ID:     %s\n", user.ID)

	if session.TokenExpired(token, time.Now()) {
		fmt.Println("Aviso: o token parece expirado; a próxima chamada exigirá novo login.")
	}
	return nil
}

func runPassword(args []string) error {
	if len(args) < 1 || args[0] != "first" {
		return fmt.Errorf("uso: portalctl password first")
	}

	a := newApp(changePasswordPage)

	// Only a school-managed professor with a pending change belongs here.
	identity, err := a.guardFor(model.RoleProfessor)
	if err != nil {
		return err
	}
	if !identity.User.ForcedPasswordChange() {
		fmt.Println("Sua senha já está atualizada.")
		return nil
	}

	p1, err := promptPassword("Nova senha: ")
	if err != nil {
		return err
	}
	if len(p1) < 8 {
		return fmt.Errorf("a senha deve ter no mínimo 8 caracteres")
	}
	p2, err := promptPassword("Repita a nova senha: ")
	if err != nil {
		return err
	}
	if p1 != p2 {
		return fmt.Errorf("as senhas não são iguais")
	}

	updated, err := a.client.FirstPassword(a.ctx, p1)
	if err != nil {
		return err
	}

	err = session.UpdateUser(a.ctx, a.st, func(u *model.UserProfile) {
		u.MustChangePassword = false
		if updated != nil {
			if updated.Email != "" {
				u.Email = updated.Email
			}
			if updated.Name != "" {
				u.Name = updated.Name
			}
		}
	})
	if err != nil {
		return err
	}

	fmt.Println("Senha definida com sucesso.")
	return nil
}

func runProfile(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("uso: portalctl profile <update|delete>")
	}

	switch args[0] {
	case "update":
		fs := flag.NewFlagSet("profile update", flag.ExitOnError)
		email := fs.String("email", "", "novo e-mail")
		name := fs.String("name", "", "novo nome")
		fs.Parse(args[1:])

		a := newApp("profile")
		identity, err := a.guardStored()
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if *email != "" {
			fields["email"] = strings.ToLower(strings.TrimSpace(*email))
		}
		if *name != "" {
			fields["name"] = strings.TrimSpace(*name)
		}
		if len(fields) == 0 {
			return fmt.Errorf("nada para atualizar (use -email e/ou -name)")
		}

		if _, err := a.client.UpdateUser(a.ctx, identity.UserID, fields); err != nil {
			return err
		}

		// Keep the stored profile in sync, same as the profile menu does.
		err = session.UpdateUser(a.ctx, a.st, func(u *model.UserProfile) {
			if v, ok := fields["email"].(string); ok {
				u.Email = v
			}
			if v, ok := fields["name"].(string); ok {
				u.Name = v
			}
		})
		if err != nil {
			return err
		}

		fmt.Println("Perfil atualizado.")
		return nil

	case "delete":
		a := newApp("profile")
		identity, err := a.guardStored()
		if err != nil {
			return err
		}

		if prompt("Digite EXCLUIR para confirmar a exclusão da conta: ") != "EXCLUIR" {
			return fmt.Errorf("exclusão cancelada")
		}

		if err := a.client.DeleteUser(a.ctx, identity.UserID); err != nil {
			return err
		}
		if err := session.Logout(a.ctx, a.st); err != nil {
			return err
		}
		fmt.Println("Conta excluída.")
		return nil

	default:
		return fmt.Errorf("uso: portalctl profile <update|delete>")
	}
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		// Not a terminal (piped input): fall back to a plain line read.
		reader := bufio.NewReader(os.Stdin)
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return "", fmt.Errorf("ler senha: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	return string(raw), nil
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleProfessor:
		return "professor"
	case model.RoleSchool:
		return "escola"
	case model.RoleStudent:
		return "aluno"
	default:
		return "desconhecido"
	}
}

func roleFlagName(role model.Role) string {
	return roleLabel(role)
}

func loginPageFor(role model.Role) string {
	// Pseudo-page for the login command; matches the frontend file names so
	// the gateway's login-page check applies during login itself.
	switch role {
	case model.RoleProfessor:
		return "login-professor.html"
	case model.RoleSchool:
		return "login-escola.html"
	default:
		return "login-aluno.html"
	}
}

// changePasswordPage matches ROUTE_CHANGE_PASSWORD's default so the guard
// recognizes the command as already being "on" the password page.
const changePasswordPage = "professor-atualizar-senha.html"
