package form

import (
	"context"
	"fmt"

	"github.com/raysh454/policeform/internal/browser"
	"github.com/raysh454/policeform/internal/logging"
	"github.com/raysh454/policeform/internal/model"
)

// AttachmentResolver turns a photo reference into a local path.
type AttachmentResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Step names reported while a submission fills the form.
const (
	StepTenant      = "tenant"
	StepLocation    = "location"
	StepLandlord    = "landlord"
	StepAttachments = "attachments"
)

type binding struct {
	field Field
	value func(*model.ResolvedSubmission) string
}

var tenantBindings = []binding{
	{IDType, func(r *model.ResolvedSubmission) string { return r.IDType }},
	{IDNumber, func(r *model.ResolvedSubmission) string { return r.IDNumber }},
	{FirstName, func(r *model.ResolvedSubmission) string { return r.FirstName }},
	{MiddleName, func(r *model.ResolvedSubmission) string { return r.MiddleName }},
	{LastName, func(r *model.ResolvedSubmission) string { return r.LastName }},
	{FatherFirstName, func(r *model.ResolvedSubmission) string { return r.FatherFirstName }},
	{FatherMiddleName, func(r *model.ResolvedSubmission) string { return r.FatherMiddleName }},
	{FatherLastName, func(r *model.ResolvedSubmission) string { return r.FatherLastName }},
	{Caste, func(r *model.ResolvedSubmission) string { return r.Caste }},
	{DateOfBirth, func(r *model.ResolvedSubmission) string { return r.DateOfBirth }},
	{Age, func(r *model.ResolvedSubmission) string { return r.Age }},
	{Phone, func(r *model.ResolvedSubmission) string { return r.Phone }},
	{PermanentAddress, func(r *model.ResolvedSubmission) string { return r.PermanentAddress }},
	{RentedAddress, func(r *model.ResolvedSubmission) string { return r.RentedAddress }},
	{RentAmount, func(r *model.ResolvedSubmission) string { return r.RentAmount }},
	{RentalDuration, func(r *model.ResolvedSubmission) string { return r.RentalDuration }},
	{PropertyType, func(r *model.ResolvedSubmission) string { return r.PropertyType }},
	{ReferencedBy, func(r *model.ResolvedSubmission) string { return r.ReferencedBy }},
}

var landlordBindings = []binding{
	{LandlordFirstName, func(r *model.ResolvedSubmission) string { return r.LandlordFirstName }},
	{LandlordMiddleName, func(r *model.ResolvedSubmission) string { return r.LandlordMiddleName }},
	{LandlordLastName, func(r *model.ResolvedSubmission) string { return r.LandlordLastName }},
	{LandlordFatherFirstName, func(r *model.ResolvedSubmission) string { return r.LandlordFatherFirstName }},
	{LandlordFatherMiddleName, func(r *model.ResolvedSubmission) string { return r.LandlordFatherMiddleName }},
	{LandlordFatherLastName, func(r *model.ResolvedSubmission) string { return r.LandlordFatherLastName }},
	{LandlordMobile, func(r *model.ResolvedSubmission) string { return r.LandlordMobile }},
	{LandlordAddress, func(r *model.ResolvedSubmission) string { return r.LandlordAddress }},
}

// TenantForm fills the whole form in the order the site expects: tenant
// fields, tenant location cascade, landlord fields, landlord cascade, then
// attachments. Every step runs strictly in sequence on one page.
type TenantForm struct {
	URL     string
	filler  *Filler
	cascade *Cascade
	logger  logging.Logger
}

func NewTenantForm(url string, filler *Filler, cascade *Cascade, logger logging.Logger) *TenantForm {
	if url == "" {
		url = DefaultURL
	}
	return &TenantForm{
		URL:     url,
		filler:  filler,
		cascade: cascade,
		logger:  logger.With(logging.Field{Key: "component", Value: "tenant_form"}),
	}
}

// Fill navigates to the form and writes every value of sub. onStep, when not
// nil, is told which section is about to be filled.
func (t *TenantForm) Fill(ctx context.Context, page browser.Page, sub model.ResolvedSubmission, files AttachmentResolver, onStep func(string)) error {
	step := func(name string) {
		t.logger.Debug("filling section", logging.Field{Key: "step", Value: name})
		if onStep != nil {
			onStep(name)
		}
	}

	if err := page.Navigate(ctx, t.URL); err != nil {
		return model.NewError(model.KindSubmission, "open form", err)
	}

	step(StepTenant)
	if err := t.fillAll(ctx, page, &sub, tenantBindings); err != nil {
		return err
	}

	step(StepLocation)
	if err := t.cascade.Resolve(ctx, page,
		Level{State, sub.State},
		Level{PoliceDistrict, sub.PoliceDistrict},
		Level{PoliceStation, sub.PoliceStation},
	); err != nil {
		return err
	}

	step(StepLandlord)
	if err := t.fillAll(ctx, page, &sub, landlordBindings); err != nil {
		return err
	}
	if err := t.cascade.Resolve(ctx, page,
		Level{LandlordDistrict, sub.LandlordDistrict},
		Level{LandlordStation, sub.LandlordStation},
	); err != nil {
		return err
	}

	step(StepAttachments)
	for _, a := range []struct {
		field Field
		ref   string
	}{
		{Photo, sub.PhotoURL},
		{IDPhoto, sub.IDPhotoURL},
	} {
		if a.ref == "" {
			continue
		}
		path, err := files.Resolve(ctx, a.ref)
		if err != nil {
			return err
		}
		if _, err := t.filler.Fill(ctx, page, a.field, path); err != nil {
			return err
		}
	}
	return nil
}

func (t *TenantForm) fillAll(ctx context.Context, page browser.Page, sub *model.ResolvedSubmission, bindings []binding) error {
	for _, b := range bindings {
		if _, err := t.filler.Fill(ctx, page, b.field, b.value(sub)); err != nil {
			return fmt.Errorf("%s: %w", b.field.Name, err)
		}
	}
	return nil
}
