package academy_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
	testutil "github.com/breakthefear/btf/tests"
)

func intPtr(i int) *int { return &i }

func TestService_Batches(t *testing.T) {
	app := testutil.NewApp(t)
	svc := app.Academy
	ctx := core.WithActor(context.Background(), core.Actor{ID: "u1", Username: "admin", Role: "admin"})

	batch, err := svc.CreateBatch(ctx, academy.NewBatch{Name: "  HSC 2026 "})
	require.NoError(t, err)
	assert.Equal(t, "HSC 2026", batch.Name)
	assert.Equal(t, "admin", batch.CreatedBy)

	tests := []struct {
		name    string
		nb      academy.NewBatch
		wantErr error
		fields  []string
	}{
		{"blank name", academy.NewBatch{Name: "   "}, nil, []string{"name"}},
		{"duplicate name", academy.NewBatch{Name: "hsc 2026"}, academy.ErrBatchExists, []string{"name"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBatch(ctx, tc.nb)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			}
			assert.Equal(t, tc.fields, testutil.ErrorFields(err))
		})
	}

	// renaming to its own name is not a conflict
	batch, err = svc.UpdateBatch(ctx, batch.ID, academy.NewBatch{Name: "HSC 2026"})
	require.NoError(t, err)

	_, err = svc.UpdateBatch(ctx, "nope", academy.NewBatch{Name: "X"})
	assert.True(t, core.IsNotFound(err))

	course, err := svc.CreateCourse(ctx, academy.NewCourse{BatchID: batch.ID, Name: "Physics"})
	require.NoError(t, err)
	assert.True(t, core.IsConstraint(svc.DeleteBatch(ctx, batch.ID)))

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))
	require.NoError(t, svc.DeleteBatch(ctx, batch.ID))

	acts, err := app.Activity.Recent(ctx, 0)
	require.NoError(t, err)
	var types []string
	for _, act := range acts {
		types = append(types, act.Type)
		assert.Equal(t, "admin", act.User)
	}
	assert.Equal(t, []string{
		activity.BatchDeleted, activity.CourseDeleted, activity.CourseCreated, activity.BatchUpdated, activity.BatchCreated,
	}, types)
	assert.Equal(t, `Batch "HSC 2026" deleted`, acts[0].Description)
}

func TestService_Courses(t *testing.T) {
	app := testutil.NewApp(t)
	svc := app.Academy
	ctx := context.Background()

	b1, err := svc.CreateBatch(ctx, academy.NewBatch{Name: "HSC 2026"})
	require.NoError(t, err)
	b2, err := svc.CreateBatch(ctx, academy.NewBatch{Name: "HSC 2027"})
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, academy.NewCourse{BatchID: b1.ID, Name: "Physics"})
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, academy.NewCourse{BatchID: b2.ID, Name: "physics"})
	require.NoError(t, err, "names are unique per batch")

	_, err = svc.CreateCourse(ctx, academy.NewCourse{BatchID: b1.ID, Name: "PHYSICS"})
	assert.True(t, errors.Is(err, academy.ErrCourseExists))

	_, err = svc.CreateCourse(ctx, academy.NewCourse{BatchID: "nope", Name: "Math"})
	assert.Equal(t, []string{"batchId"}, testutil.ErrorFields(err))

	all, err := svc.QueryCourses(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	inB1, err := svc.QueryCourses(ctx, b1.ID)
	require.NoError(t, err)
	assert.Len(t, inB1, 1)
}

func TestService_Months(t *testing.T) {
	app := testutil.NewApp(t)
	svc := app.Academy
	ctx := context.Background()

	batch, err := svc.CreateBatch(ctx, academy.NewBatch{Name: "HSC 2026"})
	require.NoError(t, err)
	course, err := svc.CreateCourse(ctx, academy.NewCourse{BatchID: batch.ID, Name: "Physics"})
	require.NoError(t, err)

	jan, err := svc.CreateMonth(ctx, academy.NewMonth{CourseID: course.ID, Name: "January", Fee: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Equal(t, 1, jan.Number())
	assert.Equal(t, "January", jan.MonthName)

	tests := []struct {
		name    string
		nm      academy.NewMonth
		wantErr error
		fields  []string
	}{
		{"unknown course", academy.NewMonth{CourseID: "nope", Name: "March", Fee: decimal.NewFromInt(1)}, nil, []string{"courseId"}},
		{"zero fee", academy.NewMonth{CourseID: course.ID, Name: "March"}, academy.ErrInvalidFee, []string{"payment"}},
		{"negative fee", academy.NewMonth{CourseID: course.ID, Name: "March", Fee: decimal.NewFromInt(-5)}, academy.ErrInvalidFee, []string{"payment"}},
		{"bad number", academy.NewMonth{CourseID: course.ID, Name: "March", MonthNumber: intPtr(0), Fee: decimal.NewFromInt(1)}, nil, []string{"monthNumber"}},
		{"duplicate name", academy.NewMonth{CourseID: course.ID, Name: "january", MonthNumber: intPtr(2), Fee: decimal.NewFromInt(1)}, academy.ErrMonthExists, []string{"name"}},
		{"duplicate number", academy.NewMonth{CourseID: course.ID, Name: "March", Fee: decimal.NewFromInt(1)}, academy.ErrMonthExists, []string{"monthNumber"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMonth(ctx, tc.nm)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			}
			assert.Equal(t, tc.fields, testutil.ErrorFields(err))
		})
	}

	feb, err := svc.CreateMonth(ctx, academy.NewMonth{CourseID: course.ID, Name: "February", MonthNumber: intPtr(2), Fee: decimal.NewFromInt(700)})
	require.NoError(t, err)

	newFee := decimal.NewFromInt(750)
	feb, err = svc.UpdateMonth(ctx, feb.ID, academy.UpdateMonth{Fee: &newFee})
	require.NoError(t, err)
	assert.Equal(t, "750", feb.Fee.String())
	assert.Equal(t, "February", feb.Name)
	assert.Equal(t, 2, feb.Number())

	_, err = svc.UpdateMonth(ctx, feb.ID, academy.UpdateMonth{MonthNumber: intPtr(1)})
	assert.True(t, errors.Is(err, academy.ErrMonthExists))

	months, err := svc.QueryMonths(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, months, 2)

	require.NoError(t, svc.DeleteMonth(ctx, jan.ID))
	_, err = svc.GetMonth(ctx, jan.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Institutions(t *testing.T) {
	app := testutil.NewApp(t)
	svc := app.Academy
	ctx := context.Background()

	inst, err := svc.CreateInstitution(ctx, academy.NewInstitution{Name: "Dhaka College", Address: "Dhaka"})
	require.NoError(t, err)

	_, err = svc.CreateInstitution(ctx, academy.NewInstitution{Name: " dhaka college"})
	assert.True(t, errors.Is(err, academy.ErrInstitutionExists))

	inst, err = svc.UpdateInstitution(ctx, inst.ID, academy.NewInstitution{Name: "Dhaka College", Address: "Azimpur, Dhaka"})
	require.NoError(t, err)
	assert.Equal(t, "Azimpur, Dhaka", inst.Address)

	cat := testutil.CreateCatalog(t, app.AcademyRepo)
	testutil.CreateStudent(t, app.StudentRepo, cat, "Rahim")
	assert.True(t, core.IsConstraint(svc.DeleteInstitution(ctx, cat.Institution.ID)))
	require.NoError(t, svc.DeleteInstitution(ctx, inst.ID))

	insts, err := svc.QueryInstitutions(ctx)
	require.NoError(t, err)
	assert.Len(t, insts, 1)
}
