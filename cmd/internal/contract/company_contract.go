package contract

type CreateCompanyRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2,max=160"`
	RUT      string `json:"rut" validate:"required,rut"`
	Industry string `json:"industry" validate:"max=120"`
}

type CompanyResponse struct {
	ID        int64  `json:"id,string"`
	Name      string `json:"name"`
	RUT       string `json:"rut"`
	Industry  string `json:"industry"`
	CreatedAt string `json:"createdAt"`
}
