package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"taskdeck/internal/model"

	"github.com/gin-gonic/gin"
)

// defaultPageLimit applies when _page is given without _limit.
const defaultPageLimit = 10

// parseListQuery translates json-server parameters:
// _sort=a,b&_order=asc,desc, _page, _limit, <field>=v and <field>_ne=v.
func parseListQuery(c *gin.Context) (ListQuery, error) {
	var q ListQuery

	fields := splitList(c.Query("_sort"))
	dirs := splitList(c.Query("_order"))
	for i, f := range fields {
		desc := false
		if i < len(dirs) {
			switch strings.ToLower(dirs[i]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return q, fmt.Errorf("invalid _order: %s", dirs[i])
			}
		}
		if _, ok := columns[f]; !ok {
			return q, fmt.Errorf("invalid _sort field: %s", f)
		}
		q.Sort = append(q.Sort, SortKey{Field: f, Desc: desc})
	}

	var err error
	if raw := c.Query("_page"); raw != "" {
		if q.Page, err = strconv.Atoi(raw); err != nil || q.Page < 1 {
			return q, fmt.Errorf("invalid _page: %s", raw)
		}
		q.Limit = defaultPageLimit
	}
	if raw := c.Query("_limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil || q.Limit < 0 {
			return q, fmt.Errorf("invalid _limit: %s", raw)
		}
	}

	for key, vals := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "_") || len(vals) == 0 {
			continue
		}
		field, not := strings.CutSuffix(key, "_ne")
		if _, ok := columns[field]; !ok {
			continue
		}
		for _, v := range vals {
			q.Where = append(q.Where, Cond{Field: field, Not: not, Value: v})
		}
	}
	return q, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleListTasks(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	tasks, total, err := s.store.List(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	t, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type createRequest struct {
	Text     string   `json:"text"`
	DueDate  *string  `json:"dueDate"`
	Priority string   `json:"priority"`
	Status   string   `json:"status"`
	Order    *float64 `json:"order"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	text, err := model.NormalizeText(req.Text)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	status := model.StatusTodo
	if strings.TrimSpace(req.Status) != "" {
		if status, err = model.ParseStatus(req.Status); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
	}
	due := ""
	if req.DueDate != nil {
		if due, err = model.ParseDueDate(*req.DueDate); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	t, err := s.store.Create(c.Request.Context(), model.Task{
		Text:     text,
		DueDate:  due,
		Priority: priority,
		Status:   status,
		Order:    req.Order,
	})
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handlePatchTask(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	p, err := patchFromBody(raw)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	t, err := s.store.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// patchFromBody keeps the distinction between absent fields and an explicit
// null dueDate. Unknown fields are ignored.
func patchFromBody(raw map[string]json.RawMessage) (model.Patch, error) {
	var p model.Patch
	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("%s must be a string", key)
		}
		return &s, nil
	}

	var err error
	if p.Text, err = str("text"); err != nil {
		return p, err
	}
	if v, ok := raw["dueDate"]; ok {
		if string(v) == "null" {
			p.ClearDueDate = true
		} else if p.DueDate, err = str("dueDate"); err != nil {
			return p, err
		}
	}
	if s, err := str("priority"); err != nil {
		return p, err
	} else if s != nil {
		pr := model.Priority(strings.TrimSpace(*s))
		p.Priority = &pr
	}
	if s, err := str("status"); err != nil {
		return p, err
	} else if s != nil {
		st := model.Status(strings.TrimSpace(*s))
		p.Status = &st
	}
	if v, ok := raw["order"]; ok {
		var o float64
		if err := json.Unmarshal(v, &o); err != nil {
			return p, errors.New("order must be a number")
		}
		p.Order = &o
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		s.respondError(c, http.StatusNotFound, err)
		return
	}
	s.respondError(c, http.StatusInternalServerError, err)
}
