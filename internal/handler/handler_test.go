package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/org-chart-api/internal/domain"
	"github.com/org-chart-api/internal/dto"
	"github.com/org-chart-api/internal/handler"
	"github.com/org-chart-api/internal/metrics"
	"github.com/org-chart-api/internal/repository"
	"github.com/org-chart-api/internal/service"
)

type mockEmployeeRepo struct {
	employees map[int64]*domain.Employee
	order     []int64
	nextID    int64
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{
		employees: make(map[int64]*domain.Employee),
		nextID:    1,
	}
}

func (m *mockEmployeeRepo) Create(ctx context.Context, emp *domain.Employee) error {
	for _, e := range m.employees {
		if e.EmployeeID == emp.EmployeeID {
			return domain.ErrDuplicateEmployeeID
		}
	}
	emp.ID = m.nextID
	emp.CreatedAt = time.Now()
	m.nextID++
	stored := *emp
	m.employees[emp.ID] = &stored
	m.order = append(m.order, emp.ID)
	return nil
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	if emp, ok := m.employees[id]; ok {
		e := *emp
		return &e, nil
	}
	return nil, domain.ErrEmployeeNotFound
}

func (m *mockEmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	result := make([]domain.Employee, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.employees[id])
	}
	return result, nil
}

func (m *mockEmployeeRepo) ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	var result []domain.Employee
	for _, id := range m.order {
		if m.employees[id].Department == department {
			result = append(result, *m.employees[id])
		}
	}
	return result, nil
}

func (m *mockEmployeeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.employees)), nil
}

func (m *mockEmployeeRepo) UpdateManager(ctx context.Context, id int64, managerID *int64) error {
	emp, ok := m.employees[id]
	if !ok {
		return domain.ErrEmployeeNotFound
	}
	emp.ManagerID = managerID
	return nil
}

func (m *mockEmployeeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return domain.ErrEmployeeNotFound
	}
	delete(m.employees, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockEmployeeRepo) WithinTransaction(ctx context.Context, fn func(repo repository.EmployeeRepository) error) error {
	return fn(m)
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, layout *domain.Layout, w io.Writer) error {
	_, err := io.WriteString(w, "<svg></svg>")
	return err
}

func (stubRenderer) ContentType() string {
	return "image/svg+xml"
}

type testServer struct {
	server  *httptest.Server
	empRepo *mockEmployeeRepo
	chart   service.ChartService
}

func setupTestServer(_ *testing.T) *testServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	empRepo := newMockEmployeeRepo()
	collector := metrics.NewCollector("orgchart")

	chart := service.NewChartService(empRepo, stubRenderer{}, service.PersistManagerChange(empRepo), collector, logger)
	empService := service.NewEmployeeService(empRepo, chart)

	empHandler := handler.NewEmployeeHandler(empService, chart, logger)
	chartHandler := handler.NewChartHandler(chart, logger)
	router := handler.NewRouter(empHandler, chartHandler, collector, logger)

	return &testServer{
		server:  httptest.NewServer(router.Setup()),
		empRepo: empRepo,
		chart:   chart,
	}
}

// setupOrgServer создаёт сервер с цепочкой CEO(1) -> VP(2) -> Mgr(3) и Sales(4) под CEO
func setupOrgServer(t *testing.T) *testServer {
	ts := setupTestServer(t)
	mustPost(t, ts.server.URL+"/employees", employeeBody("EMP001", "Board", nil))
	mustPost(t, ts.server.URL+"/employees", employeeBody("EMP002", "Engineering", 1))
	mustPost(t, ts.server.URL+"/employees", employeeBody("EMP003", "Engineering", 2))
	mustPost(t, ts.server.URL+"/employees", employeeBody("EMP004", "Sales", 1))
	return ts
}

func (ts *testServer) Close() {
	ts.server.Close()
}

func employeeBody(code, department string, managerID any) map[string]any {
	body := map[string]any{
		"employee_id": code,
		"full_name":   "Name " + code,
		"department":  department,
		"designation": "Engineer",
	}
	if managerID != nil {
		body["manager_id"] = managerID
	}
	return body
}

func postJSON(url string, body map[string]any) (*http.Response, error) {
	data, _ := json.Marshal(body)
	return http.Post(url, "application/json", bytes.NewBuffer(data))
}

func patchJSON(url string, body map[string]any) (*http.Response, error) {
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func mustPost(t *testing.T, url string, body map[string]any) {
	resp, err := postJSON(url, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup request to %s failed with %d", url, resp.StatusCode)
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestCreateEmployee_Success(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	resp, err := postJSON(ts.server.URL+"/employees", employeeBody("EMP001", "Board", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	var result dto.EmployeeResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if result.EmployeeID != "EMP001" {
		t.Errorf("expected employee_id 'EMP001', got '%s'", result.EmployeeID)
	}
	if result.ManagerID != nil {
		t.Errorf("expected root without manager, got %d", *result.ManagerID)
	}
}

func TestCreateEmployee_MissingFields(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	resp, err := postJSON(ts.server.URL+"/employees", map[string]any{"employee_id": "EMP001"})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCreateEmployee_InvalidJSON(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.server.URL+"/employees", "application/json", bytes.NewBuffer([]byte("invalid")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCreateEmployee_SecondRoot(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := postJSON(ts.server.URL+"/employees", employeeBody("EMP099", "Board", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
}

func TestCreateEmployee_ManagerNotFound(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := postJSON(ts.server.URL+"/employees", employeeBody("EMP099", "Board", 999))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestCreateEmployee_DuplicateEmployeeID(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := postJSON(ts.server.URL+"/employees", employeeBody("EMP002", "Sales", 1))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestGetEmployee(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/employees/3")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result dto.EmployeeResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if result.ManagerID == nil || *result.ManagerID != 2 {
		t.Errorf("expected manager 2, got %v", result.ManagerID)
	}
}

func TestGetEmployee_NotFoundAndInvalidID(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/employees/999")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp, err = http.Get(ts.server.URL + "/employees/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestListEmployees_ByDepartment(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/employees?department=Engineering")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var result []dto.EmployeeResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result) != 2 {
		t.Errorf("expected 2 employees, got %d", len(result))
	}
}

func TestGetChart(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/chart")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result dto.LayoutResponse
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Levels) != 3 {
		t.Errorf("expected 3 levels, got %d", len(result.Levels))
	}
	if len(result.Edges) != 3 {
		t.Errorf("expected 3 edges, got %d", len(result.Edges))
	}
	if len(result.Nodes) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(result.Nodes))
	}
}

func TestGetChart_NotLoaded(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/chart")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestChangeManager_Success(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := patchJSON(ts.server.URL+"/employees/3/manager", map[string]any{"manager_id": 4})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result dto.LayoutResponse
	json.NewDecoder(resp.Body).Decode(&result)
	found := false
	for _, e := range result.Edges {
		if e.SourceID == 4 && e.TargetID == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected edge 4 -> 3 in %+v", result.Edges)
	}

	if stored := ts.empRepo.employees[3]; stored.ManagerID == nil || *stored.ManagerID != 4 {
		t.Errorf("expected persisted manager 4, got %v", stored.ManagerID)
	}
}

func TestChangeManager_SelfReference(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := patchJSON(ts.server.URL+"/employees/2/manager", map[string]any{"manager_id": 2})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestChangeManager_CyclicReference(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := patchJSON(ts.server.URL+"/employees/1/manager", map[string]any{"manager_id": 3})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	if ts.empRepo.employees[1].ManagerID != nil {
		t.Errorf("expected root to stay without manager")
	}
}

func TestChangeManager_NotFound(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := patchJSON(ts.server.URL+"/employees/999/manager", map[string]any{"manager_id": 1})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp, err = patchJSON(ts.server.URL+"/employees/2/manager", map[string]any{"manager_id": 999})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestChangeManager_ValidationError(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := patchJSON(ts.server.URL+"/employees/2/manager", map[string]any{})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestChangeManager_MethodNotAllowed(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/employees/2/manager")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestResetChart(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.server.URL+"/chart/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestResetChart_BrokenStoreKeepsLayout(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	// корень хранилища теперь ссылается сам на себя
	root := int64(1)
	ts.empRepo.employees[1].ManagerID = &root

	resp, err := http.Post(ts.server.URL+"/chart/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}

	resp, err = http.Get(ts.server.URL + "/chart")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected last layout to be served, got %d", resp.StatusCode)
	}
}

func TestRenderChart(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/chart/svg")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("expected svg content type, got %s", ct)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupOrgServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "orgchart_hierarchy_resolves_total") {
		t.Errorf("expected resolve counter in metrics output")
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.server.URL + "/chart/unknown")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestGetChart_ReportsStoredHierarchyError(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	ts.empRepo.Create(ctx, &domain.Employee{EmployeeID: "EMP001", FullName: "A", Department: "Board", Designation: "CEO"})
	ts.empRepo.Create(ctx, &domain.Employee{EmployeeID: "EMP002", FullName: "B", Department: "Board", Designation: "CEO"})
	if _, err := ts.chart.Load(ctx); err == nil {
		t.Fatalf("expected load to fail on two roots")
	}

	resp, err := http.Get(ts.server.URL + "/chart")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}

	resp, err = postJSON(ts.server.URL+"/employees", employeeBody("EMP003", "Board", 1))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
	if len(ts.empRepo.employees) != 2 {
		t.Errorf("expected store to keep 2 employees, got %d", len(ts.empRepo.employees))
	}
}
