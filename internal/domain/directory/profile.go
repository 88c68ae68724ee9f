package directory

// ProfileUpdate is a partial worker profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone         *string `json:"phone" validate:"omitempty,min=6,max=20"`
	PushToken     *string `json:"pushToken" validate:"omitempty,max=512"`
	Designation   *string `json:"designation" validate:"omitempty,max=120"`
	FacePhoto     *string `json:"facePhoto" validate:"omitempty,max=512"`
	AccountHolder *string `json:"accountHolder" validate:"omitempty,max=120"`
	AccountNumber *string `json:"accountNumber" validate:"omitempty,min=6,max=34"`
	BankName      *string `json:"bankName" validate:"omitempty,max=120"`
	IFSC          *string `json:"ifsc" validate:"omitempty,len=11"`
	UPI           *string `json:"upi" validate:"omitempty,max=120"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.PushToken == nil && u.Designation == nil && u.FacePhoto == nil &&
		u.AccountHolder == nil && u.AccountNumber == nil && u.BankName == nil && u.IFSC == nil && u.UPI == nil
}

// Apply returns w with every supplied field overwritten.
func (u ProfileUpdate) Apply(w Worker) Worker {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&w.Name, u.Name)
	set(&w.Phone, u.Phone)
	set(&w.PushToken, u.PushToken)
	set(&w.Designation, u.Designation)
	set(&w.FacePhoto, u.FacePhoto)
	set(&w.Bank.AccountHolder, u.AccountHolder)
	set(&w.Bank.AccountNumber, u.AccountNumber)
	set(&w.Bank.BankName, u.BankName)
	set(&w.Bank.IFSC, u.IFSC)
	set(&w.Bank.UPI, u.UPI)
	return w
}
