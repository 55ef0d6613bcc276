package catalog

var (
	fullName = Field{Key: "fullName", Label: "الاسم الكامل"}
	idNumber = Field{Key: "idNumber", Label: "رقم البطاقة الوطنية"}
	date     = Field{Key: "date", Label: "التاريخ"}
)

var builtin = []DocType{
	{
		Label:  "شهادة عدم العمل",
		Fields: []Field{fullName, idNumber, {Key: "address", Label: "العنوان"}, date},
	},
	{
		Label:  "شهادة السكنى",
		Fields: []Field{fullName, idNumber, {Key: "residenceAddress", Label: "عنوان السكن"}, {Key: "duration", Label: "مدة السكن"}, date},
	},
	{
		Label:  "طلب خطي",
		Fields: []Field{fullName, idNumber, {Key: "recipient", Label: "الجهة المقدمة إليها الطلب"}, {Key: "requestContent", Label: "محتوى الطلب"}, date},
	},
	{
		Label:  "شهادة الحياة",
		Fields: []Field{fullName, idNumber, {Key: "residence", Label: "مكان الإقامة"}, date},
	},
}

// Builtin returns the four standard administrative documents.
func Builtin() *Catalog {
	c, err := New(builtin)
	if err != nil {
		panic(err)
	}
	return c
}
