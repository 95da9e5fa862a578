package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/ctxutil"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/export"
	"github.com/MasterPumpkin/evidence-mp/internal/importer"
	"github.com/MasterPumpkin/evidence-mp/internal/metrics"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
	"github.com/MasterPumpkin/evidence-mp/internal/observability"
)

// actorHeader carries the authenticated principal's id. Authentication
// itself happens in front of this service; the header is trusted.
const actorHeader = "X-Actor-ID"

type HTTPServer struct {
	srv *http.Server
}

type api struct {
	svc *Service
	log *zap.Logger
}

func StartHTTP(ctx context.Context, addr string, database *sql.DB, svc *Service, log *zap.Logger) *HTTPServer {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())

	a := &api{svc: svc, log: log}
	a.routes(mux)

	srv := &http.Server{Addr: addr, Handler: withRequestActor(mux)}

	go func() {
		_ = srv.ListenAndServe()
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects", a.listProjects)
	mux.HandleFunc("POST /api/projects/student", a.createStudentProject)
	mux.HandleFunc("POST /api/projects/teacher", a.createTeacherProject)
	mux.HandleFunc("GET /api/projects/{id}", a.getProject)
	mux.HandleFunc("POST /api/projects/{id}/approve", a.approve)
	mux.HandleFunc("POST /api/projects/{id}/resign-leader", a.resignLeader)
	mux.HandleFunc("POST /api/projects/{id}/resign-opponent", a.resignOpponent)
	mux.HandleFunc("POST /api/projects/{id}/take-opponent", a.takeOpponent)
	mux.HandleFunc("PUT /api/projects/{id}/opponent", a.assignOpponent)
	mux.HandleFunc("PUT /api/projects/{id}/student-fields", a.updateByStudent)
	mux.HandleFunc("PUT /api/projects/{id}/assignment", a.updateAssignment)
	mux.HandleFunc("PUT /api/projects/{id}/notes", a.updateNotes)
	mux.HandleFunc("PUT /api/projects/{id}/delivery", a.updateDelivery)
	mux.HandleFunc("PUT /api/projects/{id}/externals", a.updateExternals)
	mux.HandleFunc("PUT /api/projects/{id}/status", a.setStatus)

	mux.HandleFunc("GET /api/projects/{id}/evaluation/leader", a.getLeaderEval)
	mux.HandleFunc("PUT /api/projects/{id}/evaluation/leader", a.submitLeaderEval)
	mux.HandleFunc("GET /api/projects/{id}/evaluation/opponent", a.getOpponentEval)
	mux.HandleFunc("PUT /api/projects/{id}/evaluation/opponent", a.submitOpponentEval)

	mux.HandleFunc("GET /api/projects/{id}/consultations", a.listControlChecks)
	mux.HandleFunc("POST /api/projects/{id}/consultations", a.createControlCheck)
	mux.HandleFunc("POST /api/projects/{id}/consultations/generate", a.generateConsultations)
	mux.HandleFunc("PUT /api/consultations/{id}", a.updateControlCheck)
	mux.HandleFunc("DELETE /api/consultations/{id}", a.deleteControlCheck)

	mux.HandleFunc("GET /api/projects/{id}/milestones", a.listMilestones)
	mux.HandleFunc("POST /api/projects/{id}/milestones", a.createMilestone)
	mux.HandleFunc("PUT /api/milestones/{id}", a.updateMilestone)
	mux.HandleFunc("PUT /api/milestones/{id}/status", a.setMilestoneStatus)
	mux.HandleFunc("DELETE /api/milestones/{id}", a.deleteMilestone)

	mux.HandleFunc("GET /api/schemes", a.listSchemes)
	mux.HandleFunc("POST /api/schemes", a.createScheme)
	mux.HandleFunc("POST /api/schemes/{id}/activate", a.activateScheme)

	mux.HandleFunc("POST /api/users", a.createUser)
	mux.HandleFunc("GET /api/teachers", a.listTeachers)
	mux.HandleFunc("GET /api/preferences", a.getPreferences)
	mux.HandleFunc("PUT /api/preferences", a.savePreferences)

	mux.HandleFunc("GET /api/export/projects.xlsx", a.exportProjects)
	mux.HandleFunc("GET /api/projects/{id}/consultations.xlsx", a.exportConsultations)
	mux.HandleFunc("POST /api/import/users", a.importUsers)
	mux.HandleFunc("POST /api/import/projects", a.importProjects)
	mux.HandleFunc("POST /api/projects/{id}/import/milestones", a.importMilestones)
}

// request plumbing

// withRequestActor stashes the parsed actor id into the request context so
// downstream logging sees it without re-reading the header.
func withRequestActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := strconv.ParseInt(r.Header.Get(actorHeader), 10, 64); err == nil && id > 0 {
			r = r.WithContext(ctxutil.WithActorID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func actorID(r *http.Request) (int64, bool) {
	if id, ok := ctxutil.ActorID(r.Context()); ok {
		return id, true
	}
	id, err := strconv.ParseInt(r.Header.Get(actorHeader), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the service failure classes onto HTTP statuses. Unclassified
// errors are 500s and go to the error tracker.
func (a *api) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch outcome(err) {
	case "not_found":
		writeJSON(w, http.StatusNotFound, errBody(err))
	case "denied":
		writeJSON(w, http.StatusForbidden, errBody(err))
	case "conflict", "invalid":
		writeJSON(w, http.StatusUnprocessableEntity, errBody(err))
	default:
		fields := []zap.Field{zap.String("path", r.URL.Path), zap.Error(err)}
		if id, ok := ctxutil.ActorID(r.Context()); ok {
			fields = append(fields, zap.Int64("actor_id", id))
		}
		a.log.Error("request failed", fields...)
		observability.CaptureErr(err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func errBody(err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	var pe *PointsError
	if errors.As(err, &pe) {
		body["role"] = pe.Role
		body["area"] = strconv.Itoa(pe.Area)
		body["max"] = strconv.Itoa(pe.Max)
	}
	return body
}

func (a *api) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// withActor pulls the acting principal and the path id out of the request.
func (a *api) withActor(w http.ResponseWriter, r *http.Request) (actor int64, ok bool) {
	actor, ok = actorID(r)
	if !ok {
		a.badRequest(w, "missing or bad "+actorHeader+" header")
	}
	return actor, ok
}

func (a *api) withActorAndID(w http.ResponseWriter, r *http.Request) (actor, id int64, ok bool) {
	actor, ok = a.withActor(w, r)
	if !ok {
		return 0, 0, false
	}
	id, ok = pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return 0, 0, false
	}
	return actor, id, true
}

// project handlers

func (a *api) listProjects(w http.ResponseWriter, r *http.Request) {
	var f db.ProjectFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st := models.ProjectStatus(v)
		if !models.ValidStatus(st) {
			a.badRequest(w, "bad status")
			return
		}
		f.Status = st
	}
	for _, p := range []struct {
		key string
		dst *int64
	}{
		{"leader_id", &f.LeaderID},
		{"opponent_id", &f.OpponentID},
		{"student_id", &f.StudentID},
	} {
		if v := q.Get(p.key); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				a.badRequest(w, "bad "+p.key)
				return
			}
			*p.dst = id
		}
	}

	projects, err := a.svc.ListProjects(r.Context(), f)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]projectDTO, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectDTO(&projects[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) createStudentProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	var in ProjectInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.CreateStudentProject(r.Context(), actor, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

func (a *api) createTeacherProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	var in TeacherProjectInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.CreateTeacherProject(r.Context(), actor, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

func (a *api) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return
	}
	p, err := a.svc.GetProject(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// transition wraps the handlers that only need actor + project id.
func (a *api) transition(fn func(ctx context.Context, actor, id int64) (*models.Project, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, id, ok := a.withActorAndID(w, r)
		if !ok {
			return
		}
		p, err := fn(r.Context(), actor, id)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toProjectDTO(p))
	}
}

func (a *api) approve(w http.ResponseWriter, r *http.Request) {
	a.transition(a.svc.Approve)(w, r)
}

func (a *api) resignLeader(w http.ResponseWriter, r *http.Request) {
	a.transition(a.svc.ResignLeader)(w, r)
}

func (a *api) resignOpponent(w http.ResponseWriter, r *http.Request) {
	a.transition(a.svc.ResignOpponent)(w, r)
}

func (a *api) takeOpponent(w http.ResponseWriter, r *http.Request) {
	a.transition(a.svc.TakeOpponent)(w, r)
}

func (a *api) assignOpponent(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in struct {
		OpponentID int64 `json:"opponent_id"`
	}
	if err := decode(r, &in); err != nil || in.OpponentID <= 0 {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.AssignOpponent(r.Context(), actor, id, in.OpponentID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

func (a *api) updateByStudent(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in ProjectInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.UpdateByStudent(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

func (a *api) updateAssignment(w http.ResponseWriter, r *http.Request) {
	a.textField(w, r, "assignment", a.svc.UpdateAssignment)
}

func (a *api) updateNotes(w http.ResponseWriter, r *http.Request) {
	a.textField(w, r, "notes", a.svc.UpdateNotes)
}

func (a *api) textField(w http.ResponseWriter, r *http.Request, key string,
	fn func(ctx context.Context, actor, id int64, v string) (*models.Project, error)) {

	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in map[string]string
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := fn(r.Context(), actor, id, in[key])
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

func (a *api) updateDelivery(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in struct {
		WorkDate          *string `json:"work_date"`
		DocumentationDate *string `json:"documentation_date"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	work, err := parseOptionalDay(in.WorkDate)
	if err != nil {
		a.badRequest(w, "bad work_date")
		return
	}
	docs, err := parseOptionalDay(in.DocumentationDate)
	if err != nil {
		a.badRequest(w, "bad documentation_date")
		return
	}
	p, err := a.svc.UpdateDelivery(r.Context(), actor, id, work, docs)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

func (a *api) updateExternals(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in ExternalContacts
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.UpdateExternals(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

func (a *api) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in struct {
		Status models.ProjectStatus `json:"status"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.SetStatus(r.Context(), actor, id, in.Status)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// evaluation handlers

func (a *api) getLeaderEval(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return
	}
	e, err := a.svc.LeaderEvaluation(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no evaluation"})
		return
	}
	writeJSON(w, http.StatusOK, toLeaderEvalDTO(e))
}

func (a *api) submitLeaderEval(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in LeaderEvalInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	e, err := a.svc.SubmitLeaderEvaluation(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaderEvalDTO(e))
}

func (a *api) getOpponentEval(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return
	}
	e, err := a.svc.OpponentEvaluation(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	if e == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no evaluation"})
		return
	}
	writeJSON(w, http.StatusOK, toOpponentEvalDTO(e))
}

func (a *api) submitOpponentEval(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in OpponentEvalInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	e, err := a.svc.SubmitOpponentEvaluation(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOpponentEvalDTO(e))
}

// consultation handlers

func (a *api) listControlChecks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return
	}
	checks, err := a.svc.ListControlChecks(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]controlCheckDTO, 0, len(checks))
	for i := range checks {
		out = append(out, toControlCheckDTO(&checks[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) createControlCheck(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in ControlCheckInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	c, err := a.svc.CreateControlCheck(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toControlCheckDTO(c))
}

func (a *api) generateConsultations(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	created, err := a.svc.GenerateConsultations(r.Context(), actor, id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (a *api) updateControlCheck(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in ControlCheckInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	c, err := a.svc.UpdateControlCheck(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toControlCheckDTO(c))
}

func (a *api) deleteControlCheck(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	if err := a.svc.DeleteControlCheck(r.Context(), actor, id); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// milestone handlers

func (a *api) listMilestones(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return
	}
	milestones, err := a.svc.ListMilestones(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]milestoneDTO, 0, len(milestones))
	for i := range milestones {
		out = append(out, toMilestoneDTO(&milestones[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) createMilestone(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in MilestoneInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	m, err := a.svc.CreateMilestone(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMilestoneDTO(m))
}

func (a *api) updateMilestone(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in MilestoneInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	m, err := a.svc.UpdateMilestone(r.Context(), actor, id, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMilestoneDTO(m))
}

func (a *api) setMilestoneStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	var in struct {
		Status models.MilestoneStatus `json:"status"`
	}
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	m, err := a.svc.SetMilestoneStatus(r.Context(), actor, id, in.Status)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMilestoneDTO(m))
}

func (a *api) deleteMilestone(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	if err := a.svc.DeleteMilestone(r.Context(), actor, id); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scheme handlers

func (a *api) listSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := a.svc.ListSchemes(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]schemeDTO, 0, len(schemes))
	for i := range schemes {
		out = append(out, toSchemeDTO(&schemes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) createScheme(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	var in SchemeInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	sc, err := a.svc.CreateScheme(r.Context(), actor, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSchemeDTO(sc))
}

func (a *api) activateScheme(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	if err := a.svc.ActivateScheme(r.Context(), actor, id); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// user handlers

func (a *api) createUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	var in UserInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	u, err := a.svc.CreateUser(r.Context(), actor, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (a *api) listTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := a.svc.ListTeachers(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]userDTO, 0, len(teachers))
	for i := range teachers {
		out = append(out, toUserDTO(&teachers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) getPreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	p, err := a.svc.GetPreferences(r.Context(), actor)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesDTO(p))
}

func (a *api) savePreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	var in PreferencesInput
	if err := decode(r, &in); err != nil {
		a.badRequest(w, "bad body")
		return
	}
	p, err := a.svc.SavePreferences(r.Context(), actor, in)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesDTO(p))
}

// export / import handlers

func (a *api) exportProjects(w http.ResponseWriter, r *http.Request) {
	rows, err := a.svc.BuildProjectExport(r.Context())
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	wb, err := export.NewWorkbook([]export.SheetSpec{export.ProjectsSheet("Projekty", rows)})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.BuildProjectsFilename("")+`"`)
	if _, err := wb.WriteTo(w); err != nil {
		a.log.Error("export write failed", zap.Error(err))
	}
}

func (a *api) exportConsultations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.badRequest(w, "bad id")
		return
	}
	title, checks, err := a.svc.BuildConsultationExport(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	wb, err := export.NewWorkbook([]export.SheetSpec{export.ConsultationSheet(title, checks, time.Local)})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.BuildConsultationFilename(title)+`"`)
	if _, err := wb.WriteTo(w); err != nil {
		a.log.Error("export write failed", zap.Error(err))
	}
}

func (a *api) importUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	creds, rowErrs, err := a.svc.ImportUsers(r.Context(), actor, r.Body)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="hesla.csv"`)
		if err := export.WriteCredentialsCSV(w, creds); err != nil {
			a.log.Error("credentials csv write failed", zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, importResult(len(creds), rowErrs))
}

func (a *api) importProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.withActor(w, r)
	if !ok {
		return
	}
	created, rowErrs, err := a.svc.ImportProjects(r.Context(), actor, r.Body)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResult(created, rowErrs))
}

func (a *api) importMilestones(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := a.withActorAndID(w, r)
	if !ok {
		return
	}
	created, rowErrs, err := a.svc.ImportMilestones(r.Context(), actor, id, r.Body)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResult(created, rowErrs))
}

func importResult(created int, rowErrs []importer.RowError) map[string]any {
	errs := make([]string, 0, len(rowErrs))
	for _, e := range rowErrs {
		errs = append(errs, e.Error())
	}
	return map[string]any{"created": created, "row_errors": errs}
}

func parseOptionalDay(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := parseDay(*v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
