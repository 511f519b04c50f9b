package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/course"
	"github.com/edulytics/backend/services/lms"
)

var (
	errSearchRequired     = echo.NewHTTPError(http.StatusBadRequest, "Search field required")
	errCoursesNotAllowed  = echo.NewHTTPError(http.StatusForbidden, "No tiene permisos para ver los cursos solicitados")
	msgCoursesResponseKey = "courses"
)

type courseApi struct {
	svc      *course.Service
	roles    lms.RoleResolver
	validate *validator.Validate
	conf     *core.Config
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	roles lms.RoleResolver,
	validate *validator.Validate,
	conf *core.Config,
) {
	api := courseApi{
		svc:      svc,
		roles:    roles,
		validate: validate,
		conf:     conf,
	}

	vg := g.Group("/verticals", jwt)
	vg.GET("", api.query)
	vg.POST("", api.create)
	vg.GET("/:id", api.retrieve)

	g.GET("/course-structure", api.structure, jwt)
}

// VerticalRow is the create payload: one flattened leaf row.
type VerticalRow struct {
	Course           string `json:"course" validate:"required,blockid"`
	CourseName       string `json:"course_name" validate:"required"`
	Chapter          string `json:"chapter" validate:"required,blockid"`
	ChapterName      string `json:"chapter_name"`
	ChapterNumber    int    `json:"chapter_number" validate:"required,min=1"`
	Sequential       string `json:"sequential" validate:"required,blockid"`
	SequentialName   string `json:"sequential_name"`
	SequentialNumber int    `json:"sequential_number" validate:"required,min=1"`
	Vertical         string `json:"vertical" validate:"required,blockid"`
	VerticalName     string `json:"vertical_name"`
	VerticalNumber   int    `json:"vertical_number" validate:"required,min=1"`
	ID               string `json:"id" validate:"required,blockid"`
	ChildNumber      int    `json:"child_number" validate:"required,min=1"`
	Type             string `json:"type" validate:"required"`
	StudentViewURL   string `json:"student_view_url"`
	LMSWebURL        string `json:"lms_web_url"`
}

func (row VerticalRow) structureRow() course.StructureRow {
	return course.StructureRow{
		Course:           row.Course,
		CourseName:       row.CourseName,
		Chapter:          row.Chapter,
		ChapterName:      row.ChapterName,
		ChapterNumber:    row.ChapterNumber,
		Sequential:       row.Sequential,
		SequentialName:   row.SequentialName,
		SequentialNumber: row.SequentialNumber,
		Vertical:         row.Vertical,
		VerticalName:     row.VerticalName,
		VerticalNumber:   row.VerticalNumber,
		ID:               row.ID,
		ChildNumber:      row.ChildNumber,
		Type:             row.Type,
		StudentViewURL:   row.StudentViewURL,
		LMSWebURL:        row.LMSWebURL,
	}
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Vertical{})
	}

	var (
		vts []course.Vertical
		err error
	)
	if filter.IsEmpty() {
		vts, err = api.svc.QueryAll()
	} else {
		vts, err = api.svc.Search(filter.Search)
	}
	if err != nil {
		return errors.Wrap(err, "querying verticals")
	}
	if vts == nil {
		vts = []course.Vertical{}
	}
	return ctx.JSON(http.StatusOK, vts)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data []VerticalRow
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerticalRow list")
	}
	if len(data) == 0 {
		return core.NewValidationError(errors.New("empty payload"))
	}
	for _, row := range data {
		if err := api.validate.Struct(row); err != nil {
			return err
		}
	}

	vts := make([]course.Vertical, 0, len(data))
	for _, row := range data {
		vts = append(vts, course.NewVertical(row.structureRow()))
	}
	created, err := api.svc.Create(vts...)
	if err != nil {
		return errors.Wrap(err, "creating verticals")
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	vt, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting vertical")
	}
	return ctx.JSON(http.StatusOK, vt)
}

// structure serves the nested course tree for the dashboards. The result is
// limited to the courses the requesting user holds a trusted LMS role on.
func (api *courseApi) structure(ctx echo.Context) error {
	search := ctx.QueryParam("search")
	if search == "" {
		return errSearchRequired
	}

	vts, err := api.svc.Search(search)
	if err != nil {
		return errors.Wrap(err, "searching verticals")
	}
	if len(vts) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	allowed, err := contextAllowedCourses(ctx, api.roles, api.conf)
	if err != nil {
		return errors.Wrap(err, "resolving allowed courses")
	}

	mapped := course.MapCourses(vts, allowed)
	if len(mapped) == 0 {
		return errCoursesNotAllowed
	}
	return ctx.JSON(http.StatusOK, echo.Map{msgCoursesResponseKey: mapped})
}
