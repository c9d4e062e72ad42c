package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/breakthefear/btf/core/academy"
)

type academyApi struct {
	svc *academy.Service
}

func registerAcademyAPI(g *echo.Group, svc *academy.Service) {
	api := academyApi{svc: svc}

	bg := g.Group("/batches")
	bg.GET("", api.queryBatches)
	bg.POST("", api.createBatch)
	bg.GET("/:id", api.retrieveBatch)
	bg.PUT("/:id", api.updateBatch)
	bg.DELETE("/:id", api.destroyBatch)

	cg := g.Group("/courses")
	cg.GET("", api.queryCourses)
	cg.POST("", api.createCourse)
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)

	mg := g.Group("/months")
	mg.GET("", api.queryMonths)
	mg.POST("", api.createMonth)
	mg.GET("/:id", api.retrieveMonth)
	mg.PUT("/:id", api.updateMonth)
	mg.DELETE("/:id", api.destroyMonth)

	ig := g.Group("/institutions")
	ig.GET("", api.queryInstitutions)
	ig.POST("", api.createInstitution)
	ig.GET("/:id", api.retrieveInstitution)
	ig.PUT("/:id", api.updateInstitution)
	ig.DELETE("/:id", api.destroyInstitution)
}

// Batches

func (api *academyApi) queryBatches(ctx echo.Context) error {
	batches, err := api.svc.QueryBatches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []academy.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *academyApi) createBatch(ctx echo.Context) error {
	var data academy.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	batch, err := api.svc.CreateBatch(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating batch")
	}
	return ctx.JSON(http.StatusCreated, batch)
}

func (api *academyApi) retrieveBatch(ctx echo.Context) error {
	batch, err := api.svc.GetBatch(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding batch by ID")
	}
	return ctx.JSON(http.StatusOK, batch)
}

func (api *academyApi) updateBatch(ctx echo.Context) error {
	var data academy.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	batch, err := api.svc.UpdateBatch(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating batch")
	}
	return ctx.JSON(http.StatusOK, batch)
}

func (api *academyApi) destroyBatch(ctx echo.Context) error {
	if err := api.svc.DeleteBatch(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Courses

func (api *academyApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.QueryCourses(ctx.Request().Context(), ctx.QueryParam("batch"))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []academy.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *academyApi) createCourse(ctx echo.Context) error {
	var data academy.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	course, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *academyApi) retrieveCourse(ctx echo.Context) error {
	course, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *academyApi) updateCourse(ctx echo.Context) error {
	var data academy.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	course, err := api.svc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *academyApi) destroyCourse(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Months

func (api *academyApi) queryMonths(ctx echo.Context) error {
	months, err := api.svc.QueryMonths(ctx.Request().Context(), ctx.QueryParam("course"))
	if err != nil {
		return errors.Wrap(err, "querying months")
	}
	if months == nil {
		months = []academy.Month{}
	}
	return ctx.JSON(http.StatusOK, months)
}

func (api *academyApi) createMonth(ctx echo.Context) error {
	var data academy.NewMonth
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMonth")
	}
	month, err := api.svc.CreateMonth(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating month")
	}
	return ctx.JSON(http.StatusCreated, month)
}

func (api *academyApi) retrieveMonth(ctx echo.Context) error {
	month, err := api.svc.GetMonth(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding month by ID")
	}
	return ctx.JSON(http.StatusOK, month)
}

func (api *academyApi) updateMonth(ctx echo.Context) error {
	var data academy.UpdateMonth
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMonth")
	}
	month, err := api.svc.UpdateMonth(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating month")
	}
	return ctx.JSON(http.StatusOK, month)
}

func (api *academyApi) destroyMonth(ctx echo.Context) error {
	if err := api.svc.DeleteMonth(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting month")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Institutions

func (api *academyApi) queryInstitutions(ctx echo.Context) error {
	institutions, err := api.svc.QueryInstitutions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying institutions")
	}
	if institutions == nil {
		institutions = []academy.Institution{}
	}
	return ctx.JSON(http.StatusOK, institutions)
}

func (api *academyApi) createInstitution(ctx echo.Context) error {
	var data academy.NewInstitution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstitution")
	}
	inst, err := api.svc.CreateInstitution(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating institution")
	}
	return ctx.JSON(http.StatusCreated, inst)
}

func (api *academyApi) retrieveInstitution(ctx echo.Context) error {
	inst, err := api.svc.GetInstitution(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding institution by ID")
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *academyApi) updateInstitution(ctx echo.Context) error {
	var data academy.NewInstitution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstitution")
	}
	inst, err := api.svc.UpdateInstitution(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating institution")
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *academyApi) destroyInstitution(ctx echo.Context) error {
	if err := api.svc.DeleteInstitution(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting institution")
	}
	return ctx.NoContent(http.StatusNoContent)
}
