package service

import (
	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/policy"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

type CompanyRepository interface {
	FindAll() ([]*entity.Company, error)
	FindByID(id int64) (*entity.Company, error)
	FindByRUT(rut string) (*entity.Company, error)
	Create(company *entity.Company) error
}

type DefaultCompanyService struct {
	CompanyRepo CompanyRepository
	UserPolicy  *policy.UserPolicy
	Validate    *validator.Validate
}

func NewCompanyService(companyRepo CompanyRepository, userPolicy *policy.UserPolicy, validate *validator.Validate) *DefaultCompanyService {
	return &DefaultCompanyService{
		CompanyRepo: companyRepo,
		UserPolicy:  userPolicy,
		Validate:    validate,
	}
}

// GetCompanies lists every company for administrators and only the own
// company for everyone else.
func (s *DefaultCompanyService) GetCompanies(actor *entity.User) ([]*contract.CompanyResponse, apierror.ErrorResponse) {
	log := config.GetLogger()
	if !actor.Permissions().Has(entity.PermissionAdministrator) {
		company, err := s.CompanyRepo.FindByID(actor.CompanyID)
		if err != nil {
			log.Errorf("failed to fetch company %d: %v", actor.CompanyID, err)
			return nil, apierror.InternalServerError
		}
		if company == nil {
			return []*contract.CompanyResponse{}, nil
		}
		return []*contract.CompanyResponse{toCompanyResponse(company)}, nil
	}

	companies, err := s.CompanyRepo.FindAll()
	if err != nil {
		log.Errorf("failed to fetch companies: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.CompanyResponse, len(companies))
	for i, c := range companies {
		resp[i] = toCompanyResponse(c)
	}
	return resp, nil
}

func (s *DefaultCompanyService) CreateCompany(actor *entity.User, req *contract.CreateCompanyRequest) (*contract.CompanyResponse, apierror.ErrorResponse) {
	if perr := s.UserPolicy.CanManageCompanies(actor); perr != nil {
		return nil, perr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	company := &entity.Company{
		Name:     req.Name,
		RUT:      utils.NormalizeRUT(req.RUT),
		Industry: req.Industry,
	}

	if err := s.CompanyRepo.Create(company); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apierror.RUTTakenError
		}
		config.LogError(config.GetLogger(), "company_service", "CreateCompany", "Creating company", company.RUT, err)
		return nil, apierror.InternalServerError
	}
	return toCompanyResponse(company), nil
}

func toCompanyResponse(c *entity.Company) *contract.CompanyResponse {
	return &contract.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		RUT:       utils.FormatRUT(c.RUT),
		Industry:  c.Industry,
		CreatedAt: utils.FormatEpoch(c.CreatedAt),
	}
}
