package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mkredacao/portal-client/internal/model"
)

func runRooms(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("uso: portalctl rooms <list|create|delete|overview|join|leave>")
	}

	switch args[0] {
	case "list":
		a := newApp("professor-salas.html")
		identity, err := a.guardFor(model.RoleProfessor)
		if err != nil {
			return err
		}

		rooms, err := a.client.RoomsByProfessor(a.ctx, identity.CompatID)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			fmt.Println("Você ainda não criou nenhuma sala.")
			return nil
		}
		for _, room := range rooms {
			fmt.Printf("%s\t%s\n", room.ID, room.Name)
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("rooms create", flag.ExitOnError)
		name := fs.String("name", "", "nome da sala")
		fs.Parse(args[1:])
		if strings.TrimSpace(*name) == "" {
			return fmt.Errorf("informe -name")
		}

		a := newApp("professor-salas.html")
		identity, err := a.guardFor(model.RoleProfessor)
		if err != nil {
			return err
		}

		room, err := a.client.CreateRoom(a.ctx, strings.TrimSpace(*name), identity.CompatID)
		if err != nil {
			return err
		}
		fmt.Printf("Sala criada: %s (%s)\n", room.Name, room.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("rooms delete", flag.ExitOnError)
		id := fs.String("id", "", "id da sala")
		fs.Parse(args[1:])
		if *id == "" {
			return fmt.Errorf("informe -id")
		}

		a := newApp("professor-salas.html")
		if _, err := a.guardFor(model.RoleProfessor); err != nil {
			return err
		}

		if err := a.client.DeleteRoom(a.ctx, *id); err != nil {
			return err
		}
		fmt.Println("Sala excluída.")
		return nil

	case "overview":
		fs := flag.NewFlagSet("rooms overview", flag.ExitOnError)
		id := fs.String("id", "", "id da sala")
		fs.Parse(args[1:])
		if *id == "" {
			return fmt.Errorf("informe -id")
		}

		a := newApp("painel-escola.html")
		if _, err := a.guardFor(model.RoleSchool); err != nil {
			return err
		}

		rows, err := a.client.RoomOverview(a.ctx, *id)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("Nenhuma sala encontrada.")
			return nil
		}
		for _, row := range rows {
			avg := "—"
			if row.AvgScore != nil {
				avg = fmt.Sprintf("%.1f", *row.AvgScore)
			}
			fmt.Printf("%s\t%s <%s>\tmédia %s\n", row.RoomName, row.TeacherName, row.TeacherEmail, avg)
		}
		return nil

	case "join":
		fs := flag.NewFlagSet("rooms join", flag.ExitOnError)
		code := fs.String("code", "", "código da sala")
		fs.Parse(args[1:])
		if strings.TrimSpace(*code) == "" {
			return fmt.Errorf("informe -code")
		}

		a := newApp("entrar-sala.html")
		identity, err := a.guardFor(model.RoleStudent)
		if err != nil {
			return err
		}

		result, err := a.client.JoinRoom(a.ctx, strings.TrimSpace(*code), identity.CompatID)
		if err != nil {
			return err
		}
		fmt.Printf("Matrícula efetuada na sala %s.\n", result.ResolvedRoomID())
		return nil

	case "leave":
		fs := flag.NewFlagSet("rooms leave", flag.ExitOnError)
		id := fs.String("id", "", "id da sala")
		fs.Parse(args[1:])
		if *id == "" {
			return fmt.Errorf("informe -id")
		}

		a := newApp("sala-aluno.html")
		identity, err := a.guardFor(model.RoleStudent)
		if err != nil {
			return err
		}

		if err := a.client.LeaveRoom(a.ctx, *id, identity.CompatID); err != nil {
			return err
		}
		fmt.Println("Você saiu da sala.")
		return nil

	default:
		return fmt.Errorf("uso: portalctl rooms <list|create|delete|overview|join|leave>")
	}
}

func runTasks(args []string) error {
	if len(args) < 1 || args[0] != "list" {
		return fmt.Errorf("uso: portalctl tasks list -room ID")
	}

	fs := flag.NewFlagSet("tasks list", flag.ExitOnError)
	room := fs.String("room", "", "id da sala")
	fs.Parse(args[1:])
	if *room == "" {
		return fmt.Errorf("informe -room")
	}

	a := newApp("tarefas-aluno.html")
	if _, err := a.guardFor(model.RoleStudent); err != nil {
		return err
	}

	tasks, err := a.client.TasksByRoom(a.ctx, *room)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("Nenhuma tarefa nesta sala.")
		return nil
	}
	for _, task := range tasks {
		fmt.Printf("%s\t%s\n", task.ID, task.Title)
	}
	return nil
}

func runEssays(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("uso: portalctl essays <show|draft|submit|feedback>")
	}

	switch args[0] {
	case "show":
		fs := flag.NewFlagSet("essays show", flag.ExitOnError)
		task := fs.String("task", "", "id da tarefa")
		fs.Parse(args[1:])
		if *task == "" {
			return fmt.Errorf("informe -task")
		}

		a := newApp("redacao.html")
		identity, err := a.guardFor(model.RoleStudent)
		if err != nil {
			return err
		}

		essay, err := a.client.EssayByTask(a.ctx, *task, identity.CompatID)
		if err != nil {
			return err
		}
		if essay == nil {
			fmt.Println("Nenhum rascunho ou envio para esta tarefa.")
			return nil
		}
		printEssay(essay.Content, essay.Status)
		return nil

	case "draft", "submit":
		fs := flag.NewFlagSet("essays "+args[0], flag.ExitOnError)
		task := fs.String("task", "", "id da tarefa")
		file := fs.String("file", "", "arquivo com o texto da redação")
		fs.Parse(args[1:])
		if *task == "" || *file == "" {
			return fmt.Errorf("informe -task e -file")
		}

		content, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("ler redação: %w", err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return fmt.Errorf("o arquivo da redação está vazio")
		}

		a := newApp("redacao.html")
		identity, err := a.guardFor(model.RoleStudent)
		if err != nil {
			return err
		}

		if args[0] == "draft" {
			if _, err := a.client.SaveDraft(a.ctx, *task, identity.CompatID, string(content)); err != nil {
				return err
			}
			fmt.Println("Rascunho salvo.")
			return nil
		}

		// Best-effort draft save before the final submission, so the text
		// survives a failed submit.
		if _, err := a.client.SaveDraft(a.ctx, *task, identity.CompatID, string(content)); err != nil {
			a.log.Warn().Err(err).Msg("Draft save before submit failed")
		}

		essay, err := a.client.SubmitEssay(a.ctx, *task, identity.CompatID, string(content))
		if err != nil {
			return err
		}
		fmt.Printf("Redação enviada com sucesso (id %s).\n", essay.ID)
		return nil

	case "feedback":
		fs := flag.NewFlagSet("essays feedback", flag.ExitOnError)
		id := fs.String("id", "", "id da redação")
		fs.Parse(args[1:])
		if *id == "" {
			return fmt.Errorf("informe -id")
		}

		a := newApp("feedback-aluno.html")
		if _, err := a.guardFor(model.RoleStudent); err != nil {
			return err
		}

		essay, err := a.client.GetEssay(a.ctx, *id)
		if err != nil {
			return err
		}
		if essay.Score != nil {
			fmt.Printf("Nota: %.1f\n", *essay.Score)
		} else {
			fmt.Println("Ainda sem nota.")
		}
		if essay.Feedback != "" {
			fmt.Printf("\n%s\n", essay.Feedback)
		}
		return nil

	default:
		return fmt.Errorf("uso: portalctl essays <show|draft|submit|feedback>")
	}
}

func printEssay(content, status string) {
	if status != "" {
		fmt.Printf("[%s]\n", status)
	}
	fmt.Println(content)
}
