package admin

import (
	"lexconnect/models"
	"lexconnect/utils"
)

const legalUpdated = "2026-01-01T00:00:00Z"

// GetLegalSections returns all legal documents.
func (a *DefaultAdminService) GetLegalSections() []models.LegalSection {
	return []models.LegalSection{
		{
			ID:       "tos",
			Title:    "Terms of Service",
			Summary:  "These terms govern your use of the LexConnect platform.",
			Content:  termsOfService,
			Audience: models.AudienceAll,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
		{
			ID:       "privacy",
			Title:    "Privacy Policy",
			Summary:  "How LexConnect collects, shares and stores personal data.",
			Content:  privacyPolicy,
			Audience: models.AudienceAll,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
		{
			ID:       "citizen-disclaimer",
			Title:    "No Legal Advice Disclaimer",
			Summary:  "LexConnect introduces you to lawyers and does not itself give legal advice.",
			Content:  citizenDisclaimer,
			Audience: utils.RoleCitizen,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
		{
			ID:       "lawyer-conduct",
			Title:    "Lawyer Code of Conduct & Lead Policy",
			Summary:  "Obligations for lawyers receiving case offers and how leads are counted.",
			Content:  lawyerConduct,
			Audience: utils.RoleLawyer,
			Version:  "v1.0",
			Updated:  legalUpdated,
		},
	}
}

// GetLegalSectionsFor returns legal documents relevant to the specified role.
func (a *DefaultAdminService) GetLegalSectionsFor(role string) []models.LegalSection {
	all := a.GetLegalSections()
	var filtered []models.LegalSection

	for _, section := range all {
		if section.Audience == models.AudienceAll || section.Audience == role {
			filtered = append(filtered, section)
		}
	}
	return filtered
}

const termsOfService = `Welcome to LexConnect. By using the platform you agree to these Terms of Service.

1. Eligibility: You must be 18+ to open an account.
2. Platform Use: LexConnect connects citizens with independent, verified lawyers.
3. Liability: LexConnect is not a law firm and is not party to any client relationship.
4. Accounts: Keep your credentials private. We may suspend accounts that break these terms.
5. Disputes: Report problems with a lawyer through the platform within 30 days.`

const privacyPolicy = `LexConnect collects the data needed to match you with a lawyer.

1. Data We Collect: name, email, phone, city, case descriptions and uploaded documents.
2. Sharing: a case summary is shown to the lawyers it is offered to. Contact details and documents
   are shared only with the lawyer who accepts your case.
3. Processors: Stripe (payments), Cloudinary or Amazon S3 (documents), Google (maps, speech, AI).
4. Rights: you can request a copy or deletion of your data at any time.`

const citizenDisclaimer = `Information shown during pre-qualification is general and is not legal advice.
A lawyer-client relationship exists only once a lawyer accepts your case and you both agree to its terms.`

const lawyerConduct = `Lawyers on LexConnect agree to:

- Keep their bar registration current and upload valid credentials.
- Respond to case offers before they expire.
- Treat every client detail as confidential.
- Not solicit clients outside the platform using information obtained from case offers.

Each case offer delivered to you counts as one lead against your monthly plan allowance,
whether you accept, reject or let it expire. Allowances reset monthly on your cycle date.`
