package repository

import "errors"

// Бизнес-нормальные исходы хранилища. Отсутствие записи и конфликт
// "категория ещё используется" — это не сбои, а явные результаты,
// которые вызывающий слой переводит в ответ клиенту.
var ErrNotFound = errors.New("запись не найдена")
var ErrCategoryInUse = errors.New("категория используется задачами")
